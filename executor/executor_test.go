package executor_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/executor"
	"github.com/opal-lang/shellexec/killsignal"
	"github.com/opal-lang/shellexec/resolver"
	"github.com/opal-lang/shellexec/shellstate"
)

func newExecutor(t *testing.T) (*executor.Executor, *shellstate.State) {
	t.Helper()
	table := resolver.NewTable(builtin.Default)
	exec := executor.New(table, nil)
	state := shellstate.New(t.TempDir(), map[string]string{"PATH": "/usr/bin"}, table, killsignal.New())
	return exec, state
}

func word(text string) ast.Word {
	return ast.Word{Segments: []ast.WordSegment{{Kind: ast.SegLiteral, Text: text}}}
}

func paramWord(name string) ast.Word {
	return ast.Word{Segments: []ast.WordSegment{{Kind: ast.SegParam, ParamName: name, ParamOp: ast.ParamPlain}}}
}

func cmd(words ...string) *ast.SimpleCommand {
	sc := &ast.SimpleCommand{}
	for _, w := range words {
		sc.Words = append(sc.Words, word(w))
	}
	return sc
}

func list(nodes ...ast.Node) ast.SequentialList {
	items := make([]ast.Item, len(nodes))
	for i, n := range nodes {
		items[i] = ast.Item{Node: n}
	}
	return ast.SequentialList{Items: items}
}

func run(t *testing.T, exec *executor.Executor, state *shellstate.State, l ast.SequentialList, stdin string) (executor.Result, string, string) {
	t.Helper()
	var out, errBuf strings.Builder
	r := exec.Execute(l, state, executor.Streams(strings.NewReader(stdin), &out, &errBuf))
	return r, out.String(), errBuf.String()
}

func TestExecuteRunsBuiltinAndCapturesOutput(t *testing.T) {
	exec, state := newExecutor(t)
	r, out, _ := run(t, exec, state, list(cmd("echo", "hi")), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "hi\n", out)
}

func TestExecuteUnknownCommandReturnsCommandNotFound(t *testing.T) {
	exec, state := newExecutor(t)
	r, _, errOut := run(t, exec, state, list(cmd("definitely-not-a-real-binary")), "")
	assert.Equal(t, executor.ExitCommandNotFound, r.ExitCode)
	assert.Contains(t, errOut, "command not found")
}

func TestExecuteAppliesExitCodeAcrossItems(t *testing.T) {
	exec, state := newExecutor(t)
	r, _, _ := run(t, exec, state, list(cmd("false"), cmd("true")), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, 0, state.LastExit())
}

func TestExecuteExitBuiltinShortCircuitsRemainingItems(t *testing.T) {
	exec, state := newExecutor(t)
	exitCmd := &ast.SimpleCommand{Words: []ast.Word{word("exit"), word("3")}}
	r, out, _ := run(t, exec, state, list(exitCmd, cmd("echo", "never")), "")
	assert.True(t, r.IsExit())
	assert.Equal(t, 3, r.ExitCode)
	assert.Empty(t, out)
}

func TestEvalBooleanListAndShortCircuitsOnFailure(t *testing.T) {
	exec, state := newExecutor(t)
	bl := &ast.BooleanList{Left: cmd("false"), Op: ast.BoolAnd, Right: cmd("echo", "unreached")}
	r, out, _ := run(t, exec, state, list(bl), "")
	assert.NotEqual(t, 0, r.ExitCode)
	assert.Empty(t, out)
}

func TestEvalBooleanListOrRunsRightOnlyAfterFailure(t *testing.T) {
	exec, state := newExecutor(t)
	bl := &ast.BooleanList{Left: cmd("false"), Op: ast.BoolOr, Right: cmd("echo", "fallback")}
	r, out, _ := run(t, exec, state, list(bl), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "fallback\n", out)
}

func TestEvalSubshellDoesNotLeakVariableAssignments(t *testing.T) {
	exec, state := newExecutor(t)
	inner := ast.SequentialList{Items: []ast.Item{{Node: &ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "X", Value: word("leaked")}},
	}}}}
	sub := &ast.Subshell{List: inner}
	_, _, _ = run(t, exec, state, list(sub), "")

	_, ok := state.Lookup("X")
	assert.False(t, ok)
}

func TestEvalSubshellPropagatesExitCode(t *testing.T) {
	exec, state := newExecutor(t)
	sub := &ast.Subshell{List: list(cmd("false"))}
	r, _, _ := run(t, exec, state, list(sub), "")
	assert.NotEqual(t, 0, r.ExitCode)
}

func TestEvalSimpleCommandBareAssignmentPersistsToParentScope(t *testing.T) {
	exec, state := newExecutor(t)
	assign := &ast.SimpleCommand{Assignments: []ast.Assignment{{Name: "FOO", Value: word("bar")}}}
	run(t, exec, state, list(assign), "")

	v, ok := state.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestEvalSimpleCommandPrefixAssignmentDoesNotLeak(t *testing.T) {
	exec, state := newExecutor(t)
	prefixed := &ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "FOO", Value: word("only-for-this-command")}},
		Words:       []ast.Word{word("true")},
	}
	run(t, exec, state, list(prefixed), "")

	_, ok := state.Lookup("FOO")
	assert.False(t, ok)
}

func TestEvalSimpleCommandAssignmentPrefixDoesNotAffectOwnWordExpansion(t *testing.T) {
	exec, state := newExecutor(t)
	prefixed := &ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "A", Value: word("3")}},
		Words:       []ast.Word{word("echo"), paramWord("A")},
	}
	_, out, _ := run(t, exec, state, list(prefixed), "")

	// $A must expand against the state as it was before this command's own
	// A=3 prefix took effect, so an unset A still expands to nothing here.
	assert.Equal(t, "\n", out)
}

func TestEvalSimpleCommandRedirectOutWritesToFile(t *testing.T) {
	exec, state := newExecutor(t)
	dir := state.Cwd()
	sc := &ast.SimpleCommand{
		Words:     []ast.Word{word("echo"), word("to-file")},
		Redirects: []ast.Redirect{{FD: 1, Op: ast.RedirectOut, Target: word("out.txt")}},
	}
	r, out, _ := run(t, exec, state, list(sc), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Empty(t, out)

	contents, err := os.ReadFile(dir + "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "to-file\n", string(contents))
}

func TestEvalSimpleCommandHereStringFeedsStdin(t *testing.T) {
	exec, state := newExecutor(t)
	sc := &ast.SimpleCommand{
		Words:     []ast.Word{word("cat")},
		Redirects: []ast.Redirect{{Op: ast.RedirectHereString, Target: word("from-herestring")}},
	}
	r, out, _ := run(t, exec, state, list(sc), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "from-herestring\n", out)
}

func TestEvalPipelineConnectsStagesViaInMemoryPipe(t *testing.T) {
	exec, state := newExecutor(t)
	pipeline := &ast.Pipeline{Stages: []ast.Node{cmd("echo", "piped"), cmd("cat")}}
	r, out, _ := run(t, exec, state, list(pipeline), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "piped\n", out)
}

func TestEvalPipelineNegationFlipsExitCode(t *testing.T) {
	exec, state := newExecutor(t)
	pipeline := &ast.Pipeline{Negated: true, Stages: []ast.Node{cmd("true")}}
	r, _, _ := run(t, exec, state, list(pipeline), "")
	assert.Equal(t, 1, r.ExitCode)
}

func TestEvalPipelineSingleStageNegationFlipsFailureToSuccess(t *testing.T) {
	exec, state := newExecutor(t)
	pipeline := &ast.Pipeline{Negated: true, Stages: []ast.Node{cmd("false")}}
	r, _, _ := run(t, exec, state, list(pipeline), "")
	assert.Equal(t, 0, r.ExitCode)
}

func TestExecuteAbortedSignalShortCircuitsRemainingItems(t *testing.T) {
	exec, state := newExecutor(t)
	state.Signal().Send(killsignal.SIGTERM)

	r, out, _ := run(t, exec, state, list(cmd("echo", "never")), "")
	assert.True(t, r.IsExit())
	assert.Equal(t, killsignal.SIGTERM.Code(), r.ExitCode)
	assert.Empty(t, out)
}

func TestDispatchExpandsAliasToItsCommand(t *testing.T) {
	table := resolver.NewTable(builtin.Default)
	table.DefineAlias("greet", "echo hello-from-alias")
	exec := executor.New(table, nil)
	state := shellstate.New(t.TempDir(), map[string]string{"PATH": "/usr/bin"}, table, killsignal.New())

	r, out, _ := run(t, exec, state, list(cmd("greet")), "")
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "hello-from-alias\n", out)
}
