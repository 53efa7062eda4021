package builtin

import (
	"fmt"
	"strings"
)

func init() {
	Default.Register("echo", Func(echoBuiltin))
}

// echoBuiltin supports the common `-n` (no trailing newline) flag, as the
// original_source reference (pesde-pkg/croshet's echo.rs) does.
func echoBuiltin(ctx Ctx) Result {
	args := ctx.Args[1:]
	noNewline := false
	i := 0
	for i < len(args) && args[i] == "-n" {
		noNewline = true
		i++
	}
	args = args[i:]

	fmt.Fprint(ctx.Stdout, strings.Join(args, " "))
	if !noNewline {
		fmt.Fprint(ctx.Stdout, "\n")
	}
	return Continue(0)
}
