package refparser

import (
	"fmt"

	"github.com/opal-lang/shellexec/ast"
)

// Parser consumes a Token slice and builds the ast.SequentialList, using
// textbook recursive descent by precedence level (sequential list >
// boolean list > pipeline > simple command), mirroring the teacher's
// pkgs/parser/parser.go Parser struct shape (tokens + position + current
// lookahead) generalized from the devcmd grammar to the POSIX subset.
type Parser struct {
	toks []Token
	pos  int
}

// Parse lexes and parses src into a SequentialList in one call; the
// nested-command-substitution case ($(...) inside a word) recurses
// through this same entrypoint.
func Parse(src string) (ast.SequentialList, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return ast.SequentialList{}, err
	}
	p := &Parser{toks: toks}
	return p.parseSequentialList(true)
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Type == TokEOF }

func (p *Parser) skipSeparators() {
	for p.cur().Type == TokNewline || p.cur().Type == TokSemi {
		p.advance()
	}
}

// parseSequentialList parses `;`/newline/`&`-separated items until EOF or
// (when topLevel is false) a closing `)`.
func (p *Parser) parseSequentialList(topLevel bool) (ast.SequentialList, error) {
	var list ast.SequentialList
	p.skipSeparators()
	for {
		if p.atEOF() {
			break
		}
		if !topLevel && p.cur().Type == TokRParen {
			break
		}

		node, err := p.parseBooleanList()
		if err != nil {
			return ast.SequentialList{}, err
		}

		async := false
		switch p.cur().Type {
		case TokAmp:
			async = true
			p.advance()
		case TokSemi, TokNewline:
			p.advance()
		}

		list.Items = append(list.Items, ast.Item{Async: async, Node: node})
		p.skipSeparators()
	}
	return list, nil
}

// parseBooleanList parses a left-associative `&&`/`||` chain.
func (p *Parser) parseBooleanList() (ast.Node, error) {
	left, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokAndAnd || p.cur().Type == TokOrOr {
		op := ast.BoolAnd
		if p.cur().Type == TokOrOr {
			op = ast.BoolOr
		}
		p.advance()
		right, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		left = &ast.BooleanList{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parsePipeline parses an optionally `!`-negated `|`-chain of stages.
func (p *Parser) parsePipeline() (ast.Node, error) {
	negated := false
	if p.cur().Type == TokBang {
		negated = true
		p.advance()
	}

	first, err := p.parseStage()
	if err != nil {
		return nil, err
	}
	stages := []ast.Node{first}
	for p.cur().Type == TokPipe {
		p.advance()
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	if !negated && len(stages) == 1 {
		return stages[0], nil
	}
	return &ast.Pipeline{Negated: negated, Stages: stages}, nil
}

// parseStage parses one pipeline stage: a subshell or a simple command.
func (p *Parser) parseStage() (ast.Node, error) {
	if p.cur().Type == TokLParen {
		p.advance()
		inner, err := p.parseSequentialList(false)
		if err != nil {
			return nil, err
		}
		if p.cur().Type != TokRParen {
			return nil, fmt.Errorf("refparser: expected ')'")
		}
		p.advance()
		return &ast.Subshell{List: inner}, nil
	}
	return p.parseSimpleCommand()
}

// parseSimpleCommand parses leading assignment prefixes, command words,
// and trailing redirections, in spec §4.2's stated order.
func (p *Parser) parseSimpleCommand() (ast.Node, error) {
	var cmd ast.SimpleCommand

	for p.cur().Type == TokWord {
		if name, value, ok := splitAssignment(p.cur().Word); ok && len(cmd.Words) == 0 {
			cmd.Assignments = append(cmd.Assignments, ast.Assignment{Name: name, Value: value})
			p.advance()
			continue
		}
		break
	}

	for {
		switch p.cur().Type {
		case TokWord:
			cmd.Words = append(cmd.Words, p.cur().Word)
			p.advance()
		case TokRedirIn:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{FD: 0, Op: ast.RedirectIn, Target: w})
		case TokRedirOut:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{FD: 1, Op: ast.RedirectOut, Target: w})
		case TokRedirAppend:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{FD: 1, Op: ast.RedirectAppend, Target: w})
		case TokRedirErr:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{FD: 2, Op: ast.RedirectErr, Target: w})
		case TokRedirErrAppend:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{FD: 2, Op: ast.RedirectErrAppend, Target: w})
		case TokRedirBoth:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{Op: ast.RedirectBoth, Target: w})
		case TokRedirHereStr:
			p.advance()
			w, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, ast.Redirect{FD: 0, Op: ast.RedirectHereString, Target: w})
		default:
			return &cmd, nil
		}
	}
}

func (p *Parser) expectWord() (ast.Word, error) {
	if p.cur().Type != TokWord {
		return ast.Word{}, fmt.Errorf("refparser: expected word after redirection operator")
	}
	w := p.cur().Word
	p.advance()
	return w, nil
}

// splitAssignment reports whether w looks like a NAME=value assignment
// prefix: its first segment must be an unquoted literal containing '='
// preceded only by identifier characters.
func splitAssignment(w ast.Word) (name string, value ast.Word, ok bool) {
	if len(w.Segments) == 0 {
		return "", ast.Word{}, false
	}
	first := w.Segments[0]
	if first.Kind != ast.SegLiteral || first.Quoted {
		return "", ast.Word{}, false
	}

	eq := -1
	for i, r := range first.Text {
		if r == '=' {
			eq = i
			break
		}
		if !isIdentRune(r) || (i == 0 && r >= '0' && r <= '9') {
			return "", ast.Word{}, false
		}
	}
	if eq <= 0 {
		return "", ast.Word{}, false
	}

	name = first.Text[:eq]
	rest := first.Text[eq+1:]
	segs := append([]ast.WordSegment{{Kind: ast.SegLiteral, Text: rest}}, w.Segments[1:]...)
	return name, ast.Word{Segments: segs}, true
}
