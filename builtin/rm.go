package builtin

import (
	"os"
	"path/filepath"
)

func init() {
	Default.Register("rm", Func(rmBuiltin))
}

func rmBuiltin(ctx Ctx) Result {
	recursive := false
	force := false
	var targets []string
	for _, arg := range ctx.Args[1:] {
		switch arg {
		case "-r", "-R", "--recursive":
			recursive = true
		case "-f", "--force":
			force = true
		case "-rf", "-fr":
			recursive, force = true, true
		default:
			if len(arg) > 0 && arg[0] == '-' {
				return unsupportedFlag(ctx, "rm", arg)
			}
			targets = append(targets, arg)
		}
	}
	if len(targets) == 0 {
		if force {
			return Continue(0)
		}
		writeErrf(ctx, "rm: missing operand\n")
		return Continue(1)
	}

	exit := 0
	for _, arg := range targets {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(ctx.State.Cwd(), path)
		}
		var err error
		if recursive {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil && !force {
			writeErrf(ctx, "rm: %s: %v\n", arg, err)
			exit = 1
		}
	}
	return Continue(exit)
}
