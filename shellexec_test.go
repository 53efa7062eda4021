package shellexec_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shellexec "github.com/opal-lang/shellexec"
	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/killsignal"
	"github.com/opal-lang/shellexec/refparser"
)

func execScript(t *testing.T, src string, opts shellexec.Options) (int, string, string) {
	t.Helper()
	list, err := refparser.Parse(src)
	require.NoError(t, err)

	var out, errBuf strings.Builder
	if opts.Stdout == nil {
		opts.Stdout = &out
	}
	if opts.Stderr == nil {
		opts.Stderr = &errBuf
	}
	if opts.Cwd == "" {
		opts.Cwd = t.TempDir()
	}
	code, err := shellexec.Execute(list, opts)
	require.NoError(t, err)
	return code, out.String(), errBuf.String()
}

func TestExecutePipelineAndBooleanShortCircuit(t *testing.T) {
	code, out, _ := execScript(t, `echo hello | cat && echo done`, shellexec.Options{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\ndone\n", out)
}

func TestExecuteFailureShortCircuitsAndOperator(t *testing.T) {
	code, out, _ := execScript(t, `false && echo unreached`, shellexec.Options{})
	assert.NotEqual(t, 0, code)
	assert.Empty(t, out)
}

func TestExecuteOrOperatorRunsFallbackOnFailure(t *testing.T) {
	code, out, _ := execScript(t, `false || echo fallback`, shellexec.Options{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "fallback\n", out)
}

func TestExecuteSubshellIsolatesVariableAssignment(t *testing.T) {
	code, out, _ := execScript(t, `(X=leaked); echo ${X:-unset}`, shellexec.Options{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "unset\n", out)
}

func TestExecuteAssignmentPrefixScopedToSingleCommand(t *testing.T) {
	code, out, _ := execScript(t, `FOO=only echo ${FOO:-nope}; echo ${FOO:-gone}`, shellexec.Options{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "nope\ngone\n", out)
}

func TestExecuteCommandSubstitutionCapturesStdout(t *testing.T) {
	code, out, _ := execScript(t, `echo result-is-$(echo nested)`, shellexec.Options{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "result-is-nested\n", out)
}

func TestExecuteArithmeticSubstitution(t *testing.T) {
	code, out, _ := execScript(t, `echo $((2 + 3 * 4))`, shellexec.Options{})
	assert.Equal(t, 0, code)
	assert.Equal(t, "14\n", out)
}

func TestExecuteCustomCommandsAreAvailableAlongsideBuiltins(t *testing.T) {
	custom := builtin.Func(func(ctx builtin.Ctx) builtin.Result {
		return builtin.Continue(0)
	})
	code, out, _ := execScript(t, `mycustom && true`, shellexec.Options{
		CustomCommands: map[string]builtin.Command{"mycustom": custom},
	})
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestExecuteKillSignalAbortsRunningScript(t *testing.T) {
	sig := killsignal.New()
	go func() {
		time.Sleep(10 * time.Millisecond)
		sig.Send(killsignal.SIGTERM)
	}()

	code, _, _ := execScript(t, `sleep 10`, shellexec.Options{KillSignal: sig})
	assert.Equal(t, killsignal.SIGTERM.Code(), code)
}

func TestExecuteRedirectWritesFileRelativeToOptionsCwd(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := execScript(t, `echo content > result.txt`, shellexec.Options{Cwd: dir})
	assert.Equal(t, 0, code)

	got := readFile(t, dir+"/result.txt")
	assert.Equal(t, "content\n", got)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
