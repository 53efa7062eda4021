package builtin

import (
	"os"
	"path/filepath"

	"github.com/opal-lang/shellexec/shellstate"
)

func init() {
	Default.Register("cd", Func(cdBuiltin))
}

// cdBuiltin mirrors the original_source reference (cd.rs): exactly one
// path argument, no flags, target must already be a directory. Spec.md is
// silent on the no-argument case; this module follows the original rather
// than inventing bash's `cd`→`$HOME` convenience.
func cdBuiltin(ctx Ctx) Result {
	path, errMsg := parseCdArgs(ctx.Args[1:])
	if errMsg != "" {
		writeErrf(ctx, "cd: %s\n", errMsg)
		return Continue(1)
	}

	newDir := path
	if !filepath.IsAbs(newDir) {
		newDir = filepath.Join(ctx.State.Cwd(), path)
	}
	newDir = filepath.Clean(newDir)

	info, err := os.Stat(newDir)
	if err != nil || !info.IsDir() {
		writeErrf(ctx, "cd: %s: Not a directory\n", path)
		return Continue(1)
	}

	return Continue(0, shellstate.Cd{NewAbsolutePath: newDir})
}

func parseCdArgs(args []string) (path string, errMsg string) {
	var paths []string
	for _, a := range args {
		if len(a) > 0 && a[0] == '-' && a != "-" {
			return "", "unsupported flag: " + a
		}
		paths = append(paths, a)
	}
	switch len(paths) {
	case 0:
		return "", "expected at least 1 argument"
	case 1:
		return paths[0], ""
	default:
		return "", "too many arguments"
	}
}
