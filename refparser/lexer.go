package refparser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/opal-lang/shellexec/ast"
)

// Lexer turns shell source text into a flat Token stream. It reads the
// whole input once, mirroring the teacher's single-read-then-scan Lexer
// shape (runtime/lexer/lexer.go's input/position/readPos fields).
type Lexer struct {
	input []rune
	pos   int
}

// NewLexer constructs a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{input: []rune(src)}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.peek()
	l.pos++
	return r
}

func (l *Lexer) skipBlank() {
	for l.pos < len(l.input) {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

// Tokenize scans the entire input into a token slice terminated by TokEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		l.skipBlank()
		if l.pos >= len(l.input) {
			toks = append(toks, Token{Type: TokEOF})
			return toks, nil
		}

		c := l.peek()
		switch {
		case c == '\n':
			l.advance()
			toks = append(toks, Token{Type: TokNewline, Text: "\n"})
		case c == ';':
			l.advance()
			toks = append(toks, Token{Type: TokSemi, Text: ";"})
		case c == '(':
			l.advance()
			toks = append(toks, Token{Type: TokLParen, Text: "("})
		case c == ')':
			l.advance()
			toks = append(toks, Token{Type: TokRParen, Text: ")"})
		case c == '!':
			l.advance()
			toks = append(toks, Token{Type: TokBang, Text: "!"})
		case c == '&':
			if l.peekAt(1) == '&' {
				l.pos += 2
				toks = append(toks, Token{Type: TokAndAnd, Text: "&&"})
			} else if l.peekAt(1) == '>' {
				l.pos += 2
				toks = append(toks, Token{Type: TokRedirBoth, Text: "&>"})
			} else {
				l.advance()
				toks = append(toks, Token{Type: TokAmp, Text: "&"})
			}
		case c == '|':
			if l.peekAt(1) == '|' {
				l.pos += 2
				toks = append(toks, Token{Type: TokOrOr, Text: "||"})
			} else {
				l.advance()
				toks = append(toks, Token{Type: TokPipe, Text: "|"})
			}
		case c == '<':
			if l.peekAt(1) == '<' && l.peekAt(2) == '<' {
				l.pos += 3
				toks = append(toks, Token{Type: TokRedirHereStr, Text: "<<<"})
			} else {
				l.advance()
				toks = append(toks, Token{Type: TokRedirIn, Text: "<"})
			}
		case c == '>':
			if l.peekAt(1) == '>' {
				l.pos += 2
				toks = append(toks, Token{Type: TokRedirAppend, Text: ">>"})
			} else {
				l.advance()
				toks = append(toks, Token{Type: TokRedirOut, Text: ">"})
			}
		case c == '2' && l.peekAt(1) == '>':
			if l.peekAt(2) == '>' {
				l.pos += 3
				toks = append(toks, Token{Type: TokRedirErrAppend, Text: "2>>"})
			} else {
				l.pos += 2
				toks = append(toks, Token{Type: TokRedirErr, Text: "2>"})
			}
		default:
			word, err := l.scanWord()
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Type: TokWord, Word: word, Text: renderWord(word)})
		}
	}
}

// isWordBoundary reports whether r terminates an unquoted word.
func isWordBoundary(r rune) bool {
	switch r {
	case 0, ' ', '\t', '\r', '\n', ';', '|', '&', '(', ')', '<', '>':
		return true
	default:
		return false
	}
}

// scanWord scans one shell word, concatenating literal runs, quoted
// spans, and expansion segments into an ast.Word.
func (l *Lexer) scanWord() (ast.Word, error) {
	var segs []ast.WordSegment
	var lit strings.Builder
	litQuoted := false

	flushLit := func() {
		if lit.Len() > 0 {
			segs = append(segs, ast.WordSegment{Kind: ast.SegLiteral, Text: lit.String(), Quoted: litQuoted})
			lit.Reset()
		}
	}

	for l.pos < len(l.input) {
		c := l.peek()
		if isWordBoundary(c) {
			break
		}

		switch c {
		case '\'':
			flushLit()
			l.advance()
			start := l.pos
			for l.pos < len(l.input) && l.peek() != '\'' {
				l.pos++
			}
			text := string(l.input[start:l.pos])
			if l.pos < len(l.input) {
				l.advance()
			}
			segs = append(segs, ast.WordSegment{Kind: ast.SegLiteral, Text: text, Quoted: true})
		case '"':
			l.advance()
			inner, err := l.scanDoubleQuoted()
			if err != nil {
				return ast.Word{}, err
			}
			segs = append(segs, inner...)
		case '~':
			if lit.Len() == 0 {
				l.advance()
				start := l.pos
				for l.pos < len(l.input) && !isWordBoundary(l.peek()) && l.peek() != '/' {
					l.pos++
				}
				user := string(l.input[start:l.pos])
				segs = append(segs, ast.WordSegment{Kind: ast.SegTilde, TildeUser: user})
				continue
			}
			lit.WriteRune(l.advance())
		case '$':
			flushLit()
			seg, err := l.scanDollar(false)
			if err != nil {
				return ast.Word{}, err
			}
			segs = append(segs, seg)
		default:
			lit.WriteRune(l.advance())
		}
	}
	flushLit()
	return ast.Word{Segments: segs}, nil
}

// scanDoubleQuoted scans the body of a "..." span, returning one or more
// segments (literal runs and expansions), all marked Quoted.
func (l *Lexer) scanDoubleQuoted() ([]ast.WordSegment, error) {
	var segs []ast.WordSegment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, ast.WordSegment{Kind: ast.SegLiteral, Text: lit.String(), Quoted: true})
			lit.Reset()
		}
	}
	for l.pos < len(l.input) && l.peek() != '"' {
		c := l.peek()
		if c == '\\' && l.peekAt(1) != 0 {
			l.advance()
			lit.WriteRune(l.advance())
			continue
		}
		if c == '$' {
			flush()
			seg, err := l.scanDollar(true)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			continue
		}
		lit.WriteRune(l.advance())
	}
	flush()
	if l.pos < len(l.input) {
		l.advance() // closing quote
	}
	if len(segs) == 0 {
		segs = append(segs, ast.WordSegment{Kind: ast.SegLiteral, Text: "", Quoted: true})
	}
	return segs, nil
}

// scanDollar scans one `$...` expansion starting at the `$`.
func (l *Lexer) scanDollar(quoted bool) (ast.WordSegment, error) {
	l.advance() // consume '$'
	if l.peek() == '(' {
		if l.peekAt(1) == '(' {
			l.pos += 2
			src, err := l.scanBalanced(2, true)
			if err != nil {
				return ast.WordSegment{}, err
			}
			return ast.WordSegment{Kind: ast.SegArithmeticSub, SubSource: src, Quoted: quoted}, nil
		}
		l.pos++
		src, err := l.scanBalanced(1, false)
		if err != nil {
			return ast.WordSegment{}, err
		}
		nested, perr := Parse(src)
		if perr != nil {
			return ast.WordSegment{}, perr
		}
		return ast.WordSegment{Kind: ast.SegCommandSub, SubSource: src, Sub: &nested, Quoted: quoted}, nil
	}
	if l.peek() == '{' {
		l.advance()
		start := l.pos
		for l.pos < len(l.input) && l.peek() != '}' {
			l.pos++
		}
		body := string(l.input[start:l.pos])
		if l.pos < len(l.input) {
			l.advance()
		}
		return parseBracedParam(body, quoted)
	}

	start := l.pos
	for l.pos < len(l.input) && isIdentRune(l.peek()) {
		l.pos++
	}
	name := string(l.input[start:l.pos])
	if name == "" {
		// Bare `$` with nothing recognizable following: treat literally.
		return ast.WordSegment{Kind: ast.SegLiteral, Text: "$", Quoted: quoted}, nil
	}
	return ast.WordSegment{Kind: ast.SegParam, ParamName: name, ParamOp: ast.ParamPlain, Quoted: quoted}, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanBalanced scans the body of a `$(...)` or `$((...))` construct and
// returns the text up to (excluding) the closing paren(s). For command
// substitution (doubleClose false), initialDepth counts the single '('
// already consumed by the caller and ordinary paren nesting inside the
// body closes it. For arithmetic substitution (doubleClose true), the
// body's own parens nest independently (tracked from zero) and the
// construct only ends at a ")" immediately followed by another ")" while
// that nesting is back at zero, since the two closing parens of `))` are
// syntax, not content.
func (l *Lexer) scanBalanced(initialDepth int, doubleClose bool) (string, error) {
	start := l.pos
	if !doubleClose {
		depth := initialDepth
		for l.pos < len(l.input) {
			switch l.peek() {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					text := string(l.input[start:l.pos])
					l.pos++
					return text, nil
				}
			}
			l.pos++
		}
		return "", fmt.Errorf("refparser: unterminated parenthesized expression")
	}

	depth := 0
	for l.pos < len(l.input) {
		switch l.peek() {
		case '(':
			depth++
		case ')':
			if depth == 0 && l.peekAt(1) == ')' {
				text := string(l.input[start:l.pos])
				l.pos += 2
				return text, nil
			}
			depth--
		}
		l.pos++
	}
	return "", fmt.Errorf("refparser: unterminated arithmetic expression")
}

// parseBracedParam interprets the body of `${...}` for the default/
// error/alternate/length operators spec §4.2 names.
func parseBracedParam(body string, quoted bool) (ast.WordSegment, error) {
	if strings.HasPrefix(body, "#") {
		return ast.WordSegment{Kind: ast.SegParam, ParamName: body[1:], ParamOp: ast.ParamLength, Quoted: quoted}, nil
	}
	for _, op := range []struct {
		marker string
		kind   ast.ParamOp
	}{
		{":-", ast.ParamDefault},
		{":=", ast.ParamAssignDefault},
		{":?", ast.ParamError},
		{":+", ast.ParamAlternate},
	} {
		if idx := strings.Index(body, op.marker); idx >= 0 {
			name := body[:idx]
			argText := body[idx+len(op.marker):]
			argWord, err := NewLexer(argText).scanWord()
			if err != nil {
				return ast.WordSegment{}, err
			}
			return ast.WordSegment{Kind: ast.SegParam, ParamName: name, ParamOp: op.kind, ParamArg: &argWord, Quoted: quoted}, nil
		}
	}
	return ast.WordSegment{Kind: ast.SegParam, ParamName: body, ParamOp: ast.ParamPlain, Quoted: quoted}, nil
}

func renderWord(w ast.Word) string {
	var b strings.Builder
	for _, s := range w.Segments {
		if s.Kind == ast.SegLiteral {
			b.WriteString(s.Text)
		} else {
			b.WriteString("<expansion>")
		}
	}
	return b.String()
}
