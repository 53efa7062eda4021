package builtin

import "fmt"

func init() {
	Default.Register("pwd", Func(pwdBuiltin))
}

func pwdBuiltin(ctx Ctx) Result {
	if len(ctx.Args) > 1 {
		return unsupportedFlag(ctx, "pwd", ctx.Args[1])
	}
	fmt.Fprintln(ctx.Stdout, ctx.State.Cwd())
	return Continue(0)
}
