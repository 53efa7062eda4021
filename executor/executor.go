package executor

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/internal/invariant"
	"github.com/opal-lang/shellexec/internal/xlog"
	"github.com/opal-lang/shellexec/killsignal"
	"github.com/opal-lang/shellexec/proctracker"
	"github.com/opal-lang/shellexec/resolver"
	"github.com/opal-lang/shellexec/shellexpand"
	"github.com/opal-lang/shellexec/shellstate"
)

// Executor walks a SequentialList and realizes it, per spec §4.2. It is
// the ~45%-of-budget core component (C6): everything else in this module
// exists to be driven by it. Grounded on the teacher's
// runtime/executor/executor.go evaluator shape (a family of mutually
// recursive eval* methods threading a context object through the AST)
// generalized from the devcmd command-pipeline grammar to full POSIX-subset
// semantics.
type Executor struct {
	Table   *resolver.Table
	Tracker *proctracker.Tracker
	Logger  *slog.Logger
}

// New constructs an Executor and wires it into the which/xargs builtins
// (their RegisterResolver/RegisterRunner hooks) on every call, per
// the registry pattern described in builtin/which.go and builtin/xargs.go.
func New(table *resolver.Table, logger *slog.Logger) *Executor {
	invariant.NotNil(table, "table")
	if logger == nil {
		logger = xlog.Discard
	}
	e := &Executor{Table: table, Tracker: proctracker.New(), Logger: logger}
	builtin.RegisterResolver(&resolver.Adapter{Table: table})
	builtin.RegisterRunner(e)
	return e
}

// stdio bundles the three stream endpoints threaded through evaluation.
type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// Streams constructs the top-level stdio bundle Execute needs, for
// callers outside this package (the root shellexec entrypoint).
func Streams(in io.Reader, out, err io.Writer) stdio {
	return stdio{in: in, out: out, err: err}
}

// Execute evaluates a SequentialList against state, applying each item's
// EnvChange set to state in order before moving to the next (spec §5's
// ordering guarantee), and returns the accumulated Result. Top-level
// callers (shellexec.Execute, command substitution, subshells) all funnel
// through this one entrypoint.
func (e *Executor) Execute(list ast.SequentialList, state *shellstate.State, streams stdio) Result {
	result := Continue(state.LastExit(), nil)

	for _, item := range list.Items {
		if state.Signal().IsAborted() {
			return result.WithBackground().exitedWith(state.Signal().Code())
		}

		if item.Async {
			bg := e.spawnBackground(item.Node, state, streams)
			result = result.WithBackground(bg)
			continue
		}

		itemResult := e.evalNode(item.Node, state, streams)
		state.ApplyAll(itemResult.Changes)
		result = result.WithBackground(itemResult.Background...)
		result.ExitCode = itemResult.ExitCode
		state.Apply(shellstate.SetExitCode{Code: itemResult.ExitCode})

		if itemResult.IsExit() {
			result.exited = true
			return result
		}
	}

	return result
}

// exitedWith marks r as the Exit variant with the given code, used when
// an already-aborted signal short-circuits remaining items.
func (r Result) exitedWith(code int) Result {
	r.exited = true
	r.ExitCode = code
	return r
}

// spawnBackground runs node concurrently under a child signal and returns
// a BackgroundTask the enclosing top-level Execute call joins before
// returning, per spec §4's background-item handling.
func (e *Executor) spawnBackground(node ast.Node, state *shellstate.State, streams stdio) *BackgroundTask {
	child := state.CloneWithChildSignal()
	task, complete := NewBackgroundTask(0)
	go func() {
		r := e.evalNode(node, child, streams)
		complete(r.ExitCode)
	}()
	return task
}

// evalNode dispatches by concrete AST node type, the single switchboard
// every other eval* function funnels through.
func (e *Executor) evalNode(node ast.Node, state *shellstate.State, streams stdio) Result {
	switch n := node.(type) {
	case *ast.BooleanList:
		return e.evalBooleanList(n, state, streams)
	case *ast.Pipeline:
		return e.evalPipeline(n, state, streams)
	case *ast.Subshell:
		return e.evalSubshell(n, state, streams)
	case *ast.SimpleCommand:
		return e.evalSimpleCommand(n, state, streams)
	default:
		invariant.Invariant(false, "executor: unknown AST node type %T", node)
		return Continue(1, nil)
	}
}

// evalBooleanList realizes `&&`/`||` short-circuiting: Right only runs if
// Left's exit code is compatible with Op.
func (e *Executor) evalBooleanList(n *ast.BooleanList, state *shellstate.State, streams stdio) Result {
	left := e.evalNode(n.Left, state, streams)
	state.ApplyAll(left.Changes)
	state.Apply(shellstate.SetExitCode{Code: left.ExitCode})
	if left.IsExit() {
		return left
	}

	runRight := (n.Op == ast.BoolAnd && left.ExitCode == 0) || (n.Op == ast.BoolOr && left.ExitCode != 0)
	if !runRight {
		return left
	}

	right := e.evalNode(n.Right, state, streams)
	return right.WithBackground(left.Background...)
}

// evalSubshell clones state so the inner list's mutations (variables, cwd,
// aliases) never escape, per spec §4's subshell-isolation invariant; its
// exit code and background tasks do propagate outward.
func (e *Executor) evalSubshell(n *ast.Subshell, state *shellstate.State, streams stdio) Result {
	clone := state.Clone()
	r := e.Execute(n.List, clone, streams)
	return Continue(r.ExitCode, nil, r.Background...)
}

func envMap(state *shellstate.State) map[string]string {
	out := map[string]string{}
	for _, kv := range state.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			out[name] = value
		}
	}
	return out
}

// runCommandSub implements shellexpand.CommandSubRunner: it re-parses
// nothing (the AST is already parsed) and simply executes the nested list
// with stdout captured into an in-memory buffer, per spec §4.2's
// "$(...) captures stdout" rule.
func (e *Executor) runCommandSub(list ast.SequentialList, state *shellstate.State) (string, int) {
	var buf strings.Builder
	clone := state.Clone()
	r := e.Execute(list, clone, stdio{in: strings.NewReader(""), out: &buf, err: os.Stderr})
	for _, bg := range r.Background {
		bg.Wait()
	}
	return buf.String(), r.ExitCode
}

// Run implements builtin.Runner for the `xargs` builtin: it re-resolves
// argv[0] against the table and dispatches exactly as a SimpleCommand
// would, reusing ctx's streams and state.
func (e *Executor) Run(ctx builtin.Ctx, argv []string) builtin.Result {
	if len(argv) == 0 {
		return builtin.Continue(0)
	}
	streams := stdio{in: ctx.Stdin, out: ctx.Stdout, err: ctx.Stderr}
	r := e.dispatch(argv, ctx.State, streams)
	return builtin.Result{Exited: r.IsExit(), ExitCode: r.ExitCode, Changes: r.Changes}
}

// KillSignalKindFromOS maps a received os.Signal to the killsignal.Kind
// taxonomy, used by the public entrypoint when wiring host signal
// notifications into the root Signal.
func KillSignalKindFromOS(sig os.Signal) killsignal.Kind {
	switch sig.String() {
	case "interrupt":
		return killsignal.SIGINT
	case "terminated":
		return killsignal.SIGTERM
	case "hangup":
		return killsignal.SIGHUP
	case "quit":
		return killsignal.SIGQUIT
	default:
		return killsignal.SIGTERM
	}
}

// expandRunner adapts e.runCommandSub to shellexpand.CommandSubRunner.
func (e *Executor) expandRunner() shellexpand.CommandSubRunner {
	return e.runCommandSub
}
