// Package killsignal implements the hierarchical cancellation token used to
// propagate cooperative shutdown through a running SequentialList.
//
// A Signal is a node in a tree: aborting a parent aborts every descendant,
// but aborting a child never reaches back up. Abort is sticky — once a
// Signal observes an abort it stays aborted for the rest of its life, and
// the first SignalKind delivered wins for Code()/Kind(), though later
// Send calls remain observable via Sent.
package killsignal

import (
	"context"
	"sync"

	"github.com/opal-lang/shellexec/internal/invariant"
)

// Kind identifies the reason a Signal was aborted.
type Kind int

const (
	// KindNone means the signal has not been aborted.
	KindNone Kind = iota
	SIGINT
	SIGTERM
	SIGKILL
	SIGHUP
	SIGQUIT
)

// Code returns the POSIX 128+N exit code this kind maps to.
func (k Kind) Code() int {
	switch k {
	case SIGINT:
		return 130
	case SIGTERM:
		return 143
	case SIGKILL:
		return 137
	case SIGHUP:
		return 129
	case SIGQUIT:
		return 131
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case SIGINT:
		return "SIGINT"
	case SIGTERM:
		return "SIGTERM"
	case SIGKILL:
		return "SIGKILL"
	case SIGHUP:
		return "SIGHUP"
	case SIGQUIT:
		return "SIGQUIT"
	default:
		return "NONE"
	}
}

// Signal is a hierarchical cancellation token. The zero value is not
// usable; construct one with New or a child with NewChild.
type Signal struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	kind Kind
	sent []Kind // every Send observed, in order, for diagnostics
}

// New creates a fresh root Signal with no parent.
func New() *Signal {
	ctx, cancel := context.WithCancel(context.Background())
	return &Signal{ctx: ctx, cancel: cancel}
}

// NewChild derives a Signal that aborts whenever s aborts, and can
// additionally be aborted independently without affecting s.
func (s *Signal) NewChild() *Signal {
	invariant.NotNil(s, "parent signal")
	ctx, cancel := context.WithCancel(s.ctx)
	child := &Signal{ctx: ctx, cancel: cancel}
	return child
}

// Send aborts the signal with kind. Idempotent: the first kind delivered
// wins for Kind()/Code(), subsequent Send calls are still recorded in Sent
// but do not change the reported kind.
func (s *Signal) Send(kind Kind) {
	invariant.Precondition(kind != KindNone, "cannot send KindNone")

	s.mu.Lock()
	first := s.kind == KindNone
	if first {
		s.kind = kind
	}
	s.sent = append(s.sent, kind)
	s.mu.Unlock()

	if first {
		s.cancel()
	}
}

// Sent returns every kind passed to Send on s, in order.
func (s *Signal) Sent() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Kind(nil), s.sent...)
}

// IsAborted reports whether the signal (or any ancestor) has been aborted.
func (s *Signal) IsAborted() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Kind returns the first abort kind delivered, or KindNone if not aborted.
// If the abort came from an ancestor rather than a direct Send on s, Kind
// reports SIGTERM as the conservative default (the concrete kind is only
// known by the node Send was called on; ancestors may query their own
// Kind()).
func (s *Signal) Kind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != KindNone {
		return s.kind
	}
	if s.IsAborted() {
		return SIGTERM
	}
	return KindNone
}

// Code returns the POSIX 128+N exit code for the current abort kind, or 0
// if not aborted.
func (s *Signal) Code() int {
	return s.Kind().Code()
}

// WaitAborted blocks until the signal (or an ancestor) is aborted, then
// returns the kind. It completes at most once per distinct abort, but may
// be called repeatedly (each call re-observes the sticky state).
func (s *Signal) WaitAborted() Kind {
	<-s.ctx.Done()
	return s.Kind()
}

// Done returns a channel closed when the signal is aborted, suitable for
// use in a select alongside other awaitable work.
func (s *Signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Context exposes the underlying context.Context for interop with
// os/exec.CommandContext and other context-aware APIs.
func (s *Signal) Context() context.Context {
	return s.ctx
}

// Guard aborts the signal with SIGTERM when Release is called, unless
// Disarm was called first. Mirrors a drop-guard: construct with NewGuard,
// `defer guard.Release()` immediately, and Disarm() once the signal's
// lifetime is known to be owned elsewhere.
type Guard struct {
	signal   *Signal
	disarmed bool
}

// NewGuard returns a guard over s.
func NewGuard(s *Signal) *Guard {
	invariant.NotNil(s, "signal")
	return &Guard{signal: s}
}

// Disarm prevents Release from sending SIGTERM.
func (g *Guard) Disarm() {
	g.disarmed = true
}

// Release sends SIGTERM to the guarded signal unless Disarm was called.
func (g *Guard) Release() {
	if !g.disarmed {
		g.signal.Send(SIGTERM)
	}
}
