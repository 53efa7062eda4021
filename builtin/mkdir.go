package builtin

import (
	"os"
	"path/filepath"
)

func init() {
	Default.Register("mkdir", Func(mkdirBuiltin))
}

func mkdirBuiltin(ctx Ctx) Result {
	parents := false
	var dirs []string
	for _, arg := range ctx.Args[1:] {
		switch arg {
		case "-p", "--parents":
			parents = true
		default:
			if len(arg) > 0 && arg[0] == '-' {
				return unsupportedFlag(ctx, "mkdir", arg)
			}
			dirs = append(dirs, arg)
		}
	}
	if len(dirs) == 0 {
		writeErrf(ctx, "mkdir: missing operand\n")
		return Continue(1)
	}

	exit := 0
	for _, arg := range dirs {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(ctx.State.Cwd(), path)
		}
		var err error
		if parents {
			err = os.MkdirAll(path, 0o755)
		} else {
			err = os.Mkdir(path, 0o755)
		}
		if err != nil {
			writeErrf(ctx, "mkdir: %s: %v\n", arg, err)
			exit = 1
		}
	}
	return Continue(exit)
}
