package shellexpand_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/killsignal"
	"github.com/opal-lang/shellexec/shellexpand"
	"github.com/opal-lang/shellexec/shellstate"
)

type fakeTable struct{}

func (fakeTable) Lookup(name string) (any, bool) { return nil, false }

func newState(t *testing.T, env map[string]string) *shellstate.State {
	t.Helper()
	return shellstate.New(t.TempDir(), env, fakeTable{}, killsignal.New())
}

func lit(text string, quoted bool) ast.WordSegment {
	return ast.WordSegment{Kind: ast.SegLiteral, Text: text, Quoted: quoted}
}

func word(segs ...ast.WordSegment) ast.Word {
	return ast.Word{Segments: segs}
}

func TestExpandWordLiteralSegmentPassesThroughUnchanged(t *testing.T) {
	state := newState(t, nil)
	fields, err := shellexpand.ExpandWord(word(lit("hello", false)), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, fields)
}

func TestExpandWordParamPlainSubstitutesValue(t *testing.T) {
	state := newState(t, map[string]string{"NAME": "world"})
	seg := ast.WordSegment{Kind: ast.SegParam, ParamName: "NAME", ParamOp: ast.ParamPlain}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"world"}, fields)
}

func TestExpandWordParamUnquotedSplitsOnIFS(t *testing.T) {
	state := newState(t, map[string]string{"LIST": "a b  c"})
	seg := ast.WordSegment{Kind: ast.SegParam, ParamName: "LIST", ParamOp: ast.ParamPlain}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fields)
}

func TestExpandWordQuotedParamDoesNotSplit(t *testing.T) {
	state := newState(t, map[string]string{"LIST": "a b  c"})
	seg := ast.WordSegment{Kind: ast.SegParam, ParamName: "LIST", ParamOp: ast.ParamPlain, Quoted: true}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b  c"}, fields)
}

func TestExpandWordParamLengthReturnsCharacterCount(t *testing.T) {
	state := newState(t, map[string]string{"NAME": "world"})
	seg := ast.WordSegment{Kind: ast.SegParam, ParamName: "NAME", ParamOp: ast.ParamLength}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, fields)
}

func TestExpandWordParamDefaultUsesFallbackWhenUnset(t *testing.T) {
	state := newState(t, nil)
	seg := ast.WordSegment{
		Kind: ast.SegParam, ParamName: "MISSING", ParamOp: ast.ParamDefault,
		ParamArg: &ast.Word{Segments: []ast.WordSegment{lit("fallback", true)}},
	}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, fields)
}

func TestExpandWordParamAssignDefaultPersistsValue(t *testing.T) {
	state := newState(t, nil)
	seg := ast.WordSegment{
		Kind: ast.SegParam, ParamName: "NEW", ParamOp: ast.ParamAssignDefault,
		ParamArg: &ast.Word{Segments: []ast.WordSegment{lit("assigned", true)}},
	}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"assigned"}, fields)

	v, ok := state.Lookup("NEW")
	require.True(t, ok)
	assert.Equal(t, "assigned", v)
}

func TestExpandWordParamErrorReturnsExpandError(t *testing.T) {
	state := newState(t, nil)
	seg := ast.WordSegment{
		Kind: ast.SegParam, ParamName: "REQUIRED", ParamOp: ast.ParamError,
		ParamArg: &ast.Word{Segments: []ast.WordSegment{lit("must be set", true)}},
	}
	_, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.Error(t, err)
	var expandErr *shellexpand.ExpandError
	require.ErrorAs(t, err, &expandErr)
	assert.Equal(t, "REQUIRED", expandErr.Name)
	assert.Equal(t, "must be set", expandErr.Message)
}

func TestExpandWordParamAlternateYieldsArgOnlyWhenSet(t *testing.T) {
	state := newState(t, map[string]string{"SET": "yes"})
	segSet := ast.WordSegment{
		Kind: ast.SegParam, ParamName: "SET", ParamOp: ast.ParamAlternate,
		ParamArg: &ast.Word{Segments: []ast.WordSegment{lit("alt", true)}},
	}
	fields, err := shellexpand.ExpandWord(word(segSet), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alt"}, fields)

	segUnset := ast.WordSegment{
		Kind: ast.SegParam, ParamName: "UNSET", ParamOp: ast.ParamAlternate,
		ParamArg: &ast.Word{Segments: []ast.WordSegment{lit("alt", true)}},
	}
	fields, err = shellexpand.ExpandWord(word(segUnset), state, nil)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestExpandWordCommandSubRunsInjectedRunnerAndTrimsNewline(t *testing.T) {
	state := newState(t, nil)
	seg := ast.WordSegment{Kind: ast.SegCommandSub, Sub: &ast.SequentialList{}}
	var gotList *ast.SequentialList
	runSub := func(list ast.SequentialList, s *shellstate.State) (string, int) {
		gotList = &list
		return "output\n", 0
	}
	fields, err := shellexpand.ExpandWord(word(seg), state, runSub)
	require.NoError(t, err)
	assert.Equal(t, []string{"output"}, fields)
	assert.NotNil(t, gotList)
}

func TestExpandWordArithmeticSubEvaluatesExpression(t *testing.T) {
	state := newState(t, map[string]string{"X": "4"})
	seg := ast.WordSegment{Kind: ast.SegArithmeticSub, SubSource: "X * 3 + 1"}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"13"}, fields)
}

func TestExpandWordTildeExpandsToHomeDirectory(t *testing.T) {
	state := newState(t, nil)
	seg := ast.WordSegment{Kind: ast.SegTilde}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.NotEmpty(t, fields[0])
}

func TestExpandWordTildeWithUserFallsBackToLiteral(t *testing.T) {
	state := newState(t, nil)
	seg := ast.WordSegment{Kind: ast.SegTilde, TildeUser: "bob"}
	fields, err := shellexpand.ExpandWord(word(seg), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"~bob"}, fields)
}

func TestExpandWordGlobExpandsMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	state := shellstate.New(dir, nil, fakeTable{}, killsignal.New())
	require.NoError(t, os.WriteFile(dir+"/a.txt", []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dir+"/b.txt", []byte("x"), 0o644))

	fields, err := shellexpand.ExpandWord(word(lit("*.txt", false)), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, fields)
}

func TestExpandWordGlobWithNoMatchFallsBackToLiteralPattern(t *testing.T) {
	state := newState(t, nil)
	fields, err := shellexpand.ExpandWord(word(lit("*.nomatch", false)), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.nomatch"}, fields)
}

func TestExpandWordQuotedGlobCharactersAreNotExpanded(t *testing.T) {
	state := newState(t, nil)
	fields, err := shellexpand.ExpandWord(word(lit("*.txt", true)), state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.txt"}, fields)
}
