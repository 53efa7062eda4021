package builtin

import (
	"io"
	"os"
	"path/filepath"
)

func init() {
	Default.Register("cp", Func(cpBuiltin))
	Default.Register("mv", Func(mvBuiltin))
}

func cpBuiltin(ctx Ctx) Result {
	src, dst, ok := twoPathArgs(ctx, "cp")
	if !ok {
		return Continue(1)
	}
	if err := copyFile(src, dst); err != nil {
		writeErrf(ctx, "cp: %v\n", err)
		return Continue(1)
	}
	return Continue(0)
}

func mvBuiltin(ctx Ctx) Result {
	src, dst, ok := twoPathArgs(ctx, "mv")
	if !ok {
		return Continue(1)
	}
	if err := os.Rename(src, dst); err != nil {
		// Cross-device rename falls back to copy+remove, matching the
		// common coreutils mv behavior.
		if cerr := copyFile(src, dst); cerr != nil {
			writeErrf(ctx, "mv: %v\n", cerr)
			return Continue(1)
		}
		if rerr := os.Remove(src); rerr != nil {
			writeErrf(ctx, "mv: %v\n", rerr)
			return Continue(1)
		}
	}
	return Continue(0)
}

func twoPathArgs(ctx Ctx, name string) (src, dst string, ok bool) {
	var paths []string
	for _, arg := range ctx.Args[1:] {
		if len(arg) > 0 && arg[0] == '-' {
			unsupportedFlag(ctx, name, arg)
			return "", "", false
		}
		paths = append(paths, arg)
	}
	if len(paths) != 2 {
		writeErrf(ctx, "%s: exactly 2 operands required\n", name)
		return "", "", false
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(ctx.State.Cwd(), p)
	}
	return resolve(paths[0]), resolve(paths[1]), true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
