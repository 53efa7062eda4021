package builtin

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func init() {
	Default.Register("head", Func(headBuiltin))
}

// headBuiltin supports `-n LINES` (default 10) and `-c BYTES`, matching
// the flags spec §8's scenario 1 (`head -c 3`) exercises.
func headBuiltin(ctx Ctx) Result {
	args := ctx.Args[1:]
	lines := 10
	byteCount := -1
	var files []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-n" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return unsupportedFlag(ctx, "head", args[i])
			}
			lines = n
			i++
		case strings.HasPrefix(args[i], "-n"):
			n, err := strconv.Atoi(strings.TrimPrefix(args[i], "-n"))
			if err != nil {
				return unsupportedFlag(ctx, "head", args[i])
			}
			lines = n
		case args[i] == "-c" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return unsupportedFlag(ctx, "head", args[i])
			}
			byteCount = n
			i++
		case strings.HasPrefix(args[i], "-c"):
			n, err := strconv.Atoi(strings.TrimPrefix(args[i], "-c"))
			if err != nil {
				return unsupportedFlag(ctx, "head", args[i])
			}
			byteCount = n
		case len(args[i]) > 0 && args[i][0] == '-':
			return unsupportedFlag(ctx, "head", args[i])
		default:
			files = append(files, args[i])
		}
	}

	sources := []struct {
		name string
		r    *bufio.Reader
		f    *os.File
	}{}

	if len(files) == 0 {
		sources = append(sources, struct {
			name string
			r    *bufio.Reader
			f    *os.File
		}{name: "-", r: bufio.NewReader(ctx.Stdin)})
	} else {
		for _, arg := range files {
			path := arg
			if !filepath.IsAbs(path) {
				path = filepath.Join(ctx.State.Cwd(), path)
			}
			f, err := os.Open(path)
			if err != nil {
				writeErrf(ctx, "head: %s: %v\n", arg, err)
				continue
			}
			sources = append(sources, struct {
				name string
				r    *bufio.Reader
				f    *os.File
			}{name: arg, r: bufio.NewReader(f), f: f})
		}
	}

	for _, src := range sources {
		if byteCount >= 0 {
			buf := make([]byte, byteCount)
			n, _ := src.r.Read(buf)
			ctx.Stdout.Write(buf[:n])
		} else {
			for i := 0; i < lines; i++ {
				line, err := src.r.ReadString('\n')
				if len(line) > 0 {
					fmt.Fprint(ctx.Stdout, line)
				}
				if err != nil {
					break
				}
			}
		}
		if src.f != nil {
			src.f.Close()
		}
	}

	return Continue(0)
}
