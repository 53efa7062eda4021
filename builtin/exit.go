package builtin

import "strconv"

func init() {
	Default.Register("exit", Func(exitBuiltin))
}

// exitBuiltin implements spec §4.6's exit builtin: it always returns the
// Exit Result variant. The code is taken modulo 256 per spec §6.
func exitBuiltin(ctx Ctx) Result {
	code := ctx.State.LastExit()
	if len(ctx.Args) > 1 {
		n, err := strconv.Atoi(ctx.Args[1])
		if err != nil {
			writeErrf(ctx, "exit: %s: numeric argument required\n", ctx.Args[1])
			return Exit(2)
		}
		code = n
	}
	code = ((code % 256) + 256) % 256
	return Exit(code)
}
