// Package shellexpand implements the per-word expansion pipeline spec
// §4.2 step 1-2 describes: parameter, command substitution, arithmetic,
// tilde, and globbing, followed by field splitting of unquoted results.
// Grounded on the teacher's value-resolution pattern
// (core/decorator/value.go's Content.Resolve walking ContentPart/PartKind
// variants) generalized from decorator parameters to full POSIX word
// segments.
package shellexpand

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/internal/invariant"
	"github.com/opal-lang/shellexec/shellstate"
)

// CommandSubRunner executes a nested SequentialList for `$(...)`,
// capturing its stdout (trailing newlines trimmed, per spec §4.2) and
// returning the exit code that becomes $? inside the substitution's
// surrounding expansion. The executor package supplies the concrete
// implementation; shellexpand only needs the function shape, avoiding an
// import cycle (executor depends on shellexpand, not vice versa).
type CommandSubRunner func(list ast.SequentialList, state *shellstate.State) (output string, exitCode int)

// Env is the expansion-time variable lookup surface, satisfied by
// *shellstate.State. ExpandWord takes a *shellstate.State directly and
// does not use this interface.
type Env interface {
	Lookup(name string) (string, bool)
}

// ExpandError reports a ${NAME:?message} failure, per spec §4.2.
type ExpandError struct {
	Name    string
	Message string
}

func (e *ExpandError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Name + ": parameter null or not set"
}

// Field is one post-split, post-glob result. Quoted fields are never
// glob-expanded even if they contain metacharacters.
type Field struct {
	Value  string
	Quoted bool
}

// ExpandWord runs the full pipeline for one AST word and returns the
// resulting shell fields (a quoted word always yields exactly one field;
// an unquoted word's expansions are split on IFS and/or glob-expanded,
// which may yield zero, one, or many fields).
func ExpandWord(word ast.Word, state *shellstate.State, runSub CommandSubRunner) ([]string, error) {
	invariant.NotNil(state, "state")

	var fields []string
	var current strings.Builder
	currentQuoted := false
	currentHasUnquotedExpansion := false

	flush := func() error {
		if current.Len() == 0 && !currentHasUnquotedExpansion && !currentQuoted {
			return nil
		}
		text := current.String()
		if currentQuoted {
			fields = append(fields, text)
		} else {
			expanded, err := globExpand(text, state.Cwd())
			if err != nil {
				return err
			}
			fields = append(fields, expanded...)
		}
		current.Reset()
		currentQuoted = false
		currentHasUnquotedExpansion = false
		return nil
	}

	for _, seg := range word.Segments {
		text, err := expandSegment(seg, state, runSub)
		if err != nil {
			return nil, err
		}

		if seg.Quoted {
			// A quoted segment glues onto whatever is accumulating; if the
			// field so far was unquoted-and-splittable, splitting still
			// happens at word boundaries only, so merge into current.
			current.WriteString(text)
			currentQuoted = currentQuoted || current.Len() == len(text) // first segment sets quoted-ness of the whole run
			continue
		}

		if isSplittableKind(seg.Kind) {
			if current.Len() > 0 {
				// Unquoted expansion result participates in field
				// splitting: flush prior literal text as its own chunk
				// boundary, then split this expansion independently.
				if err := flush(); err != nil {
					return nil, err
				}
			}
			parts := splitIFS(text)
			if len(parts) == 0 {
				currentHasUnquotedExpansion = true
				continue
			}
			for i, p := range parts {
				if i < len(parts)-1 {
					current.WriteString(p)
					if err := flush(); err != nil {
						return nil, err
					}
				} else {
					current.WriteString(p)
					currentHasUnquotedExpansion = true
				}
			}
			continue
		}

		current.WriteString(text)
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return fields, nil
}

func isSplittableKind(k ast.SegmentKind) bool {
	switch k {
	case ast.SegParam, ast.SegCommandSub, ast.SegArithmeticSub:
		return true
	default:
		return false
	}
}

func expandSegment(seg ast.WordSegment, state *shellstate.State, runSub CommandSubRunner) (string, error) {
	switch seg.Kind {
	case ast.SegLiteral, ast.SegDoubleQuoted:
		if len(seg.Inner) > 0 {
			var b strings.Builder
			for _, inner := range seg.Inner {
				t, err := expandSegment(inner, state, runSub)
				if err != nil {
					return "", err
				}
				b.WriteString(t)
			}
			return b.String(), nil
		}
		return seg.Text, nil
	case ast.SegParam:
		return expandParam(seg, state, runSub)
	case ast.SegCommandSub:
		if seg.Sub == nil || runSub == nil {
			return "", nil
		}
		out, code := runSub(*seg.Sub, state)
		state.Apply(shellstate.SetExitCode{Code: code})
		return strings.TrimRight(out, "\n"), nil
	case ast.SegArithmeticSub:
		n, err := EvalArithmetic(seg.SubSource, state)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", n), nil
	case ast.SegTilde:
		return expandTilde(seg.TildeUser), nil
	default:
		return "", fmt.Errorf("shellexpand: unknown segment kind %v", seg.Kind)
	}
}

func expandParam(seg ast.WordSegment, state *shellstate.State, runSub CommandSubRunner) (string, error) {
	value, set := state.Lookup(seg.ParamName)

	switch seg.ParamOp {
	case ast.ParamLength:
		return fmt.Sprintf("%d", len(value)), nil
	case ast.ParamPlain:
		return value, nil
	case ast.ParamDefault:
		if set && value != "" {
			return value, nil
		}
		return expandArgWord(seg.ParamArg, state, runSub)
	case ast.ParamAssignDefault:
		if set && value != "" {
			return value, nil
		}
		def, err := expandArgWord(seg.ParamArg, state, runSub)
		if err != nil {
			return "", err
		}
		state.Apply(shellstate.SetVar{Name: seg.ParamName, Value: def})
		return def, nil
	case ast.ParamError:
		if set && value != "" {
			return value, nil
		}
		msg, _ := expandArgWord(seg.ParamArg, state, runSub)
		return "", &ExpandError{Name: seg.ParamName, Message: msg}
	case ast.ParamAlternate:
		if set && value != "" {
			return expandArgWord(seg.ParamArg, state, runSub)
		}
		return "", nil
	default:
		return value, nil
	}
}

func expandArgWord(w *ast.Word, state *shellstate.State, runSub CommandSubRunner) (string, error) {
	if w == nil {
		return "", nil
	}
	fields, err := ExpandWord(*w, state, runSub)
	if err != nil {
		return "", err
	}
	return strings.Join(fields, " "), nil
}

func expandTilde(user string) string {
	if user != "" {
		// Reference implementation does not resolve other users' home
		// directories (requires host-specific user database lookups
		// outside spec scope); fall back to the literal form.
		return "~" + user
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "~"
}

// splitIFS splits on the fixed IFS of space/tab/newline, per spec §4.2.
func splitIFS(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
}

// globExpand expands shell metacharacters against the filesystem relative
// to cwd; on no match, returns the literal pattern per spec §4.2.
func globExpand(pattern string, cwd string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}

	abs := pattern
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, pattern)
	}
	matches, err := filepath.Glob(abs)
	if err != nil || len(matches) == 0 {
		return []string{pattern}, nil
	}

	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		if filepath.IsAbs(pattern) {
			rel = append(rel, m)
			continue
		}
		r, err := filepath.Rel(cwd, m)
		if err != nil {
			rel = append(rel, m)
			continue
		}
		rel = append(rel, r)
	}
	sort.Strings(rel)
	return rel, nil
}
