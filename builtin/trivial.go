package builtin

func init() {
	Default.Register("true", Func(func(ctx Ctx) Result {
		return FromExitCode(0)
	}))
	Default.Register("false", Func(func(ctx Ctx) Result {
		return FromExitCode(1)
	}))
}
