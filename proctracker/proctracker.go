// Package proctracker implements the process-wide child-process tracker
// from spec §4.4: it registers OS child handles keyed by the KillSignal
// node that should terminate them, and issues an OS-level termination when
// that signal aborts. Grounded on the teacher's shellWorkerPool
// registry-with-mutex idiom (runtime/executor/shell_worker.go) and its
// per-platform process-group kill split (core/decorator/local_session_unix.go
// / local_session_windows.go).
package proctracker

import (
	"os/exec"
	"sync"

	"github.com/opal-lang/shellexec/internal/invariant"
	"github.com/opal-lang/shellexec/killsignal"
)

// Tracker is the process-wide registry. The zero value is not usable; use
// New.
type Tracker struct {
	mu      sync.Mutex
	entries map[*killsignal.Signal][]*entry
}

type entry struct {
	cmd *exec.Cmd
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[*killsignal.Signal][]*entry)}
}

// Register configures cmd for process-group cancellation and arranges for
// it to be terminated when signal aborts. It returns a deregister func the
// caller must invoke once the child has actually exited (self-removal,
// per spec §4.4).
//
// Register must be called before cmd.Start() so the process-group
// SysProcAttr is in place.
func (t *Tracker) Register(signal *killsignal.Signal, cmd *exec.Cmd) (deregister func()) {
	invariant.NotNil(t, "tracker")
	invariant.NotNil(signal, "signal")
	invariant.NotNil(cmd, "cmd")

	configureCommandForCancellation(cmd)

	e := &entry{cmd: cmd}
	t.mu.Lock()
	t.entries[signal] = append(t.entries[signal], e)
	t.mu.Unlock()

	stop := make(chan struct{})
	go func() {
		select {
		case <-signal.Done():
			terminateCommandOnCancel(cmd)
		case <-stop:
		}
	}()

	return func() {
		close(stop)
		t.mu.Lock()
		defer t.mu.Unlock()
		list := t.entries[signal]
		for i, cur := range list {
			if cur == e {
				t.entries[signal] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(t.entries[signal]) == 0 {
			delete(t.entries, signal)
		}
	}
}

// Count returns the number of live children registered under signal, for
// tests and diagnostics.
func (t *Tracker) Count(signal *killsignal.Signal) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries[signal])
}
