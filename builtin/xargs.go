package builtin

import "bufio"

// Runner is the minimal surface xargs needs to invoke a resolved command
// with a fresh argv — wired up by the executor package at startup via
// RegisterRunner, avoiding a builtin<->executor import cycle.
type Runner interface {
	Run(ctx Ctx, argv []string) Result
}

var runner Runner

// RegisterRunner wires the executor's command-invocation entrypoint into
// the xargs builtin.
func RegisterRunner(r Runner) {
	runner = r
}

func init() {
	Default.Register("xargs", Func(xargsBuiltin))
}

// xargsBuiltin reads whitespace-separated tokens from stdin and appends
// them to Args[1:] before invoking the resulting command once, matching
// the common (non -n/-I) xargs usage.
func xargsBuiltin(ctx Ctx) Result {
	if runner == nil {
		writeErrf(ctx, "xargs: runner not configured\n")
		return Continue(1)
	}
	if len(ctx.Args) < 2 {
		writeErrf(ctx, "xargs: missing command\n")
		return Continue(1)
	}

	var extra []string
	scanner := bufio.NewScanner(ctx.Stdin)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		extra = append(extra, scanner.Text())
	}

	argv := append(append([]string(nil), ctx.Args[1:]...), extra...)
	return runner.Run(ctx, argv)
}
