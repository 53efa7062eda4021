// Package shellexec is the public entrypoint (C7): Execute takes a parsed
// SequentialList and a set of Options and runs it to completion, returning
// the process-visible exit code. The parser that produces the
// SequentialList is an external collaborator, per spec §1 — this package
// never lexes or parses shell source text itself.
package shellexec

import (
	"io"
	"log/slog"
	"os"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/executor"
	"github.com/opal-lang/shellexec/internal/invariant"
	"github.com/opal-lang/shellexec/internal/xlog"
	"github.com/opal-lang/shellexec/killsignal"
	"github.com/opal-lang/shellexec/resolver"
	"github.com/opal-lang/shellexec/shellstate"
)

// Options configures one top-level Execute call, per spec §4.1/§6.
type Options struct {
	// Cwd is the initial working directory; must be a non-empty absolute
	// path.
	Cwd string

	// EnvVars seeds the initial exported variable set. If nil, the host
	// process's own environment is inherited.
	EnvVars map[string]string

	// CustomCommands lets a host register additional builtins beyond the
	// reference set in package builtin, keyed by name.
	CustomCommands map[string]builtin.Command

	// KillSignal is the root cancellation token for this run. If nil, a
	// fresh root Signal is created that nothing outside the run can abort.
	KillSignal *killsignal.Signal

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Debug routes xtrace-style diagnostics to this writer when non-nil.
	Debug io.Writer
}

// Execute runs list to completion and returns the resulting process exit
// code, joining every still-running background task before returning, per
// spec §4's background-task accounting rule.
func Execute(list ast.SequentialList, opts Options) (int, error) {
	invariant.Precondition(opts.Cwd != "", "Options.Cwd must not be empty")
	invariant.AbsPath(opts.Cwd, "Options.Cwd")

	env := opts.EnvVars
	if env == nil {
		env = map[string]string{}
		for _, kv := range os.Environ() {
			if name, value, ok := cut(kv); ok {
				env[name] = value
			}
		}
	}

	signal := opts.KillSignal
	if signal == nil {
		signal = killsignal.New()
	}

	registry := builtin.Default
	if len(opts.CustomCommands) > 0 {
		registry = builtin.NewRegistry()
		for _, name := range builtin.Default.Names() {
			cmd, _ := builtin.Default.Lookup(name)
			registry.Register(name, cmd)
		}
		for name, cmd := range opts.CustomCommands {
			registry.Register(name, cmd)
		}
	}

	table := resolver.NewTable(registry)
	state := shellstate.New(opts.Cwd, env, table, signal)

	var logger *slog.Logger
	if opts.Debug != nil {
		logger = xlog.New(opts.Debug, true)
	}
	exec := executor.New(table, logger)

	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	result := exec.Execute(list, state, executor.Streams(stdin, stdout, stderr))

	for _, bg := range result.Background {
		bg.Wait()
	}

	return result.ExitCode, nil
}

func cut(kv string) (name, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
