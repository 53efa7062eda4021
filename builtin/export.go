package builtin

import (
	"strings"

	"github.com/opal-lang/shellexec/shellstate"
)

func init() {
	Default.Register("export", Func(exportBuiltin))
}

// exportBuiltin handles `export NAME=value` and `export NAME` (promoting an
// existing shell-local variable to exported), one or more per invocation.
func exportBuiltin(ctx Ctx) Result {
	var changes []shellstate.EnvChange
	for _, arg := range ctx.Args[1:] {
		if len(arg) > 0 && arg[0] == '-' {
			return unsupportedFlag(ctx, "export", arg)
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if name == "" {
			writeErrf(ctx, "export: invalid name: %q\n", arg)
			return Continue(1)
		}
		if !hasValue {
			if existing, ok := ctx.State.Lookup(name); ok {
				value = existing
			}
		}
		changes = append(changes, shellstate.SetVar{Name: name, Value: value})
	}
	return Continue(0, changes...)
}
