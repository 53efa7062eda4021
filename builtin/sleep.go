package builtin

import (
	"strconv"
	"time"
)

func init() {
	Default.Register("sleep", Func(sleepBuiltin))
}

// sleepBuiltin polls the KillSignal instead of blocking uninterruptibly,
// per spec §9's guidance that builtins doing blocking work must poll
// between chunks or their abort will be delayed until the syscall returns.
func sleepBuiltin(ctx Ctx) Result {
	if len(ctx.Args) < 2 {
		writeErrf(ctx, "sleep: missing operand\n")
		return Continue(1)
	}
	secs, err := strconv.ParseFloat(ctx.Args[1], 64)
	if err != nil || secs < 0 {
		writeErrf(ctx, "sleep: invalid time interval %q\n", ctx.Args[1])
		return Continue(1)
	}

	deadline := time.Now().Add(time.Duration(secs * float64(time.Second)))
	const pollInterval = 20 * time.Millisecond
	signal := ctx.State.Signal()

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Continue(0)
		}
		wait := pollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-signal.Done():
			return Continue(signal.Code())
		case <-time.After(wait):
		}
	}
}
