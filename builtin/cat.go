package builtin

import (
	"io"
	"os"
	"path/filepath"
)

func init() {
	Default.Register("cat", Func(catBuiltin))
}

func catBuiltin(ctx Ctx) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		if _, err := io.Copy(ctx.Stdout, ctx.Stdin); err != nil {
			writeErrf(ctx, "cat: %v\n", err)
			return Continue(1)
		}
		return Continue(0)
	}

	exit := 0
	for _, arg := range args {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(ctx.State.Cwd(), path)
		}
		if err := catFile(ctx, path); err != nil {
			writeErrf(ctx, "cat: %s: %v\n", arg, err)
			exit = 1
		}
		if ctx.State.Signal().IsAborted() {
			return Continue(ctx.State.Signal().Code())
		}
	}
	return Continue(exit)
}

// catFile copies in fixed chunks, polling the kill signal between reads so
// cancellation doesn't wait for an entire large file to finish (spec §9).
func catFile(ctx Ctx, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	for {
		if ctx.State.Signal().IsAborted() {
			return nil
		}
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := ctx.Stdout.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
