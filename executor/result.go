// Package executor implements the core AST evaluator: the family of
// mutually-recursive evaluation functions that walk a SequentialList and
// realize pipelines, redirections, subshells, boolean short-circuits,
// expansion, and builtin/external dispatch, per spec §4.2.
package executor

import (
	"github.com/opal-lang/shellexec/shellstate"
)

// Result is the sum type spec §3 calls ExecuteResult: either the stage
// finished and the caller may proceed (Continue), or the stage demands
// the enclosing SequentialList terminate immediately (Exit, from the
// `exit` builtin). Both variants carry the set of still-running
// background tasks that must be joined before the top-level Execute
// returns.
type Result struct {
	exited bool

	ExitCode   int
	Changes    []shellstate.EnvChange
	Background []*BackgroundTask
}

// Continue builds a Result that lets the caller proceed to the next item.
func Continue(exitCode int, changes []shellstate.EnvChange, background ...*BackgroundTask) Result {
	return Result{ExitCode: exitCode, Changes: changes, Background: background}
}

// Exit builds a Result that terminates the enclosing SequentialList.
func Exit(exitCode int, background ...*BackgroundTask) Result {
	return Result{exited: true, ExitCode: exitCode, Background: background}
}

// IsExit reports whether this Result is the Exit variant.
func (r Result) IsExit() bool { return r.exited }

// WithBackground returns a copy of r with additional background tasks
// appended, used when folding a child result's background set into a
// parent's accumulating Result.
func (r Result) WithBackground(tasks ...*BackgroundTask) Result {
	r.Background = append(append([]*BackgroundTask(nil), r.Background...), tasks...)
	return r
}

// BackgroundTask is a spawned `cmd &` item. Wait blocks until the task
// completes and returns its final exit code; it is safe to call Wait more
// than once.
type BackgroundTask struct {
	PID  int
	done chan struct{}
	code int
}

// NewBackgroundTask creates a task and returns it along with the function
// the spawning goroutine must call exactly once on completion.
func NewBackgroundTask(pid int) (*BackgroundTask, func(exitCode int)) {
	t := &BackgroundTask{PID: pid, done: make(chan struct{})}
	return t, func(exitCode int) {
		t.code = exitCode
		close(t.done)
	}
}

// Wait blocks until the task finishes and returns its exit code.
func (t *BackgroundTask) Wait() int {
	<-t.done
	return t.code
}
