package builtin

import "github.com/opal-lang/shellexec/shellstate"

func init() {
	Default.Register("unset", Func(unsetBuiltin))
}

// unsetBuiltin mirrors original_source's unset.rs: no arguments succeeds
// trivially, `-v` is accepted as a no-op (it's the default mode anyway),
// `-f` is rejected since this module has no function namespace for it to
// target, and every remaining argument becomes an UnsetVar.
func unsetBuiltin(ctx Ctx) Result {
	var changes []shellstate.EnvChange
	for _, arg := range ctx.Args[1:] {
		if arg == "-v" {
			continue
		}
		if arg == "-f" {
			return unsupportedFlag(ctx, "unset", "-f")
		}
		changes = append(changes, shellstate.UnsetVar{Name: arg})
	}
	return Continue(0, changes...)
}
