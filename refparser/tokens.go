// Package refparser is a minimal reference lexer/parser producing the
// ast package's SequentialList, sufficient to exercise the executor
// end-to-end and back cmd/shelldemo. It is deliberately NOT the
// production parser: spec §1 treats shell-source lexing/parsing as an
// external collaborator outside this module's core, and a real host
// embedding this module is expected to bring its own. Grounded on the
// teacher's two-file lexer/tokens split (runtime/lexer/lexer.go,
// runtime/lexer/tokens.go) and ASCII lookup-table initialization idiom,
// retargeted from the devcmd DSL's token set to the POSIX-subset grammar
// spec §2 describes.
package refparser

import "github.com/opal-lang/shellexec/ast"

// TokenType enumerates the lexical tokens this reference lexer produces.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIllegal

	TokWord // any shell word, already expansion-annotated as an ast.Word

	TokAndAnd // &&
	TokOrOr   // ||
	TokPipe   // |
	TokSemi   // ;
	TokAmp    // &
	TokBang   // !
	TokNewline

	TokLParen // (
	TokRParen // )

	TokRedirIn        // <
	TokRedirOut       // >
	TokRedirAppend    // >>
	TokRedirErr       // 2>
	TokRedirErrAppend // 2>>
	TokRedirBoth      // &>
	TokRedirHereStr   // <<<
)

// Token is one lexical unit. Word holds the parsed ast.Word for
// TokWord. Assignment-looking words (NAME=value) are ordinary TokWord
// tokens; the parser detects assignment prefixes itself.
type Token struct {
	Type TokenType
	Text string   // raw source text, for diagnostics
	Word ast.Word // populated for TokWord

	RedirFD int // target FD for redirect tokens that don't imply one (TokRedirIn/Out/Append default 0/1)
}

var isWS [128]bool

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWS[i] = ch == ' ' || ch == '\t' || ch == '\r'
	}
}
