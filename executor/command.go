package executor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/internal/xlog"
	"github.com/opal-lang/shellexec/resolver"
	"github.com/opal-lang/shellexec/shellexpand"
	"github.com/opal-lang/shellexec/shellstate"
)

// evalSimpleCommand realizes spec §4.2's pipeline for a single invocation:
// expand words, apply assignment prefixes, open redirections, resolve the
// command name, then dispatch to a builtin, alias, or external process, in
// that exact order.
func (e *Executor) evalSimpleCommand(n *ast.SimpleCommand, state *shellstate.State, streams stdio) Result {
	assignState := state
	var assignChanges []shellstate.EnvChange
	if len(n.Assignments) > 0 {
		// Assignment values are expanded against assignState, a clone of
		// the original state that already holds the earlier assignments of
		// the same prefix (POSIX left-to-right assignment evaluation). The
		// resulting vars are only applied to assignState, which is used for
		// the invocation's environment — never for expanding the command's
		// own words, which must see the pre-assignment state.
		assignState = state.Clone()
		for _, a := range n.Assignments {
			value, err := expandAssignmentValue(a.Value, assignState, e.expandRunner())
			if err != nil {
				writeExpandError(streams, err)
				return Continue(1, nil)
			}
			assignState.Apply(shellstate.SetVar{Name: a.Name, Value: value})
		}
	}

	if len(n.Words) == 0 {
		// Bare assignment: NAME=value with no command persists into the
		// enclosing scope, per spec §3's assignment-prefix scoping rule.
		if assignState != state {
			for _, a := range n.Assignments {
				v, _ := assignState.Lookup(a.Name)
				assignChanges = append(assignChanges, shellstate.SetVar{Name: a.Name, Value: v})
			}
		}
		return Continue(0, assignChanges)
	}

	// Words expand against the pre-assignment state: `A=3 echo $A` must not
	// see the A=3 prefix is applying to its own invocation, only to the
	// child process's environment (assignState, used below for dispatch).
	argv, err := expandWords(n.Words, state, e.expandRunner())
	if err != nil {
		writeExpandError(streams, err)
		return Continue(1, nil)
	}
	if len(argv) == 0 {
		return Continue(0, nil)
	}
	xlog.XTrace(context.Background(), e.Logger, "+ "+strings.Join(argv, " "))

	redirected, cleanup, rerr := applyRedirects(n.Redirects, assignState, streams)
	defer cleanup()
	if rerr != nil {
		io.WriteString(streams.err, rerr.Error()+"\n")
		return Continue(1, nil)
	}

	return e.dispatch(argv, assignState, redirected)
}

// expandAssignmentValue expands a Word for use as an assignment's value:
// per POSIX, assignment values undergo parameter/command/arithmetic/tilde
// expansion but never field splitting or globbing, so every segment is
// forced into the already-quoted code path.
func expandAssignmentValue(w ast.Word, state *shellstate.State, runSub shellexpand.CommandSubRunner) (string, error) {
	forced := ast.Word{Segments: make([]ast.WordSegment, len(w.Segments))}
	for i, seg := range w.Segments {
		seg.Quoted = true
		forced.Segments[i] = seg
	}
	fields, err := shellexpand.ExpandWord(forced, state, runSub)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

func expandWords(words []ast.Word, state *shellstate.State, runSub shellexpand.CommandSubRunner) ([]string, error) {
	var argv []string
	for _, w := range words {
		fields, err := shellexpand.ExpandWord(w, state, runSub)
		if err != nil {
			return nil, err
		}
		argv = append(argv, fields...)
	}
	return argv, nil
}

func writeExpandError(streams stdio, err error) {
	io.WriteString(streams.err, "shellexec: "+err.Error()+"\n")
}

// dispatch resolves argv[0] and runs it, following spec §4.5's priority:
// builtin, then alias, then external executable.
func (e *Executor) dispatch(argv []string, state *shellstate.State, streams stdio) Result {
	name := argv[0]
	target, err := resolver.Resolve(e.Table, name, state.Cwd(), envMap(state))
	if err != nil {
		io.WriteString(streams.err, name+": command not found\n")
		return Continue(ExitCommandNotFound, nil)
	}

	switch target.Kind {
	case resolver.KindBuiltin:
		return e.runBuiltin(target.Builtin, argv, state, streams)
	case resolver.KindAlias:
		expanded := append(splitAliasValue(target.Alias), argv[1:]...)
		if len(expanded) == 0 {
			return Continue(0, nil)
		}
		return e.dispatch(expanded, state, streams)
	default:
		return e.runExternal(target.Path, argv, state, streams)
	}
}

func splitAliasValue(value string) []string {
	var out []string
	cur := ""
	for _, r := range value {
		if r == ' ' || r == '\t' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func (e *Executor) runBuiltin(cmd builtin.Command, argv []string, state *shellstate.State, streams stdio) Result {
	ctx := builtin.Ctx{Args: argv, State: state, Stdin: streams.in, Stdout: streams.out, Stderr: streams.err}
	r := cmd.Execute(ctx)
	return Result{exited: r.Exited, ExitCode: r.ExitCode, Changes: r.Changes}
}

// runExternal spawns the resolved path as a child process, registers it
// with the process tracker for cancellation, and waits for completion,
// mapping signal-driven termination to the 128+N exit code convention.
func (e *Executor) runExternal(path string, argv []string, state *shellstate.State, streams stdio) Result {
	signal := state.Signal()
	if signal.IsAborted() {
		return Continue(signal.Code(), nil)
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Dir = state.Cwd()
	cmd.Env = state.Environ()
	cmd.Stdin = streams.in
	cmd.Stdout = streams.out
	cmd.Stderr = streams.err

	deregister := e.Tracker.Register(signal, cmd)
	defer deregister()

	if err := cmd.Start(); err != nil {
		io.WriteString(streams.err, argv[0]+": "+err.Error()+"\n")
		return Continue(ExitSpawnFailed, nil)
	}

	err := cmd.Wait()
	if err == nil {
		return Continue(0, nil)
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if signal.IsAborted() {
			return Continue(signal.Code(), nil)
		}
		return Continue(exitErr.ExitCode(), nil)
	}
	return Continue(ExitGenericFailure, nil)
}

// applyRedirects opens every redirection target and returns a stdio with
// the corresponding stream replaced, plus a cleanup func that closes
// whatever files were opened. Relative targets resolve against state's
// cwd, never the host process's working directory, per spec §6.
func applyRedirects(redirects []ast.Redirect, state *shellstate.State, streams stdio) (stdio, func(), error) {
	if len(redirects) == 0 {
		return streams, func() {}, nil
	}

	var opened []*os.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	result := streams
	for _, r := range redirects {
		target, err := expandRedirectTarget(r.Target, state)
		if err != nil {
			cleanup()
			return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
		}

		if r.Op == ast.RedirectHereString {
			result.in = strings.NewReader(target + "\n")
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(state.Cwd(), target)
		}

		switch r.Op {
		case ast.RedirectIn:
			f, err := os.Open(target)
			if err != nil {
				cleanup()
				return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
			}
			opened = append(opened, f)
			result.in = f
		case ast.RedirectOut:
			f, err := os.Create(target)
			if err != nil {
				cleanup()
				return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
			}
			opened = append(opened, f)
			result.out = f
		case ast.RedirectAppend:
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				cleanup()
				return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
			}
			opened = append(opened, f)
			result.out = f
		case ast.RedirectErr:
			f, err := os.Create(target)
			if err != nil {
				cleanup()
				return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
			}
			opened = append(opened, f)
			result.err = f
		case ast.RedirectErrAppend:
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				cleanup()
				return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
			}
			opened = append(opened, f)
			result.err = f
		case ast.RedirectBoth:
			f, err := os.Create(target)
			if err != nil {
				cleanup()
				return stdio{}, func() {}, &RedirectError{Target: target, Err: err}
			}
			opened = append(opened, f)
			result.out = f
			result.err = f
		}
	}

	return result, cleanup, nil
}

func expandRedirectTarget(w ast.Word, state *shellstate.State) (string, error) {
	fields, err := shellexpand.ExpandWord(w, state, nil)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}
