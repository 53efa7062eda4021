package builtin

import (
	"fmt"
	"strings"
)

// Resolver is the minimal surface which.go needs from resolver.Table,
// expressed as an interface here to avoid builtin importing resolver
// (which itself imports builtin for the registry) — the same import-cycle
// avoidance pattern as Result vs executor.Result.
type Resolver interface {
	Resolve(name, cwd string, env map[string]string) (kind string, path string, err error)
	// ResolveAll backs -a/--all: for an external command it returns every
	// matching PATH entry instead of only the first. kind and paths follow
	// Resolve's conventions (kind is "builtin"/"alias"/"external"; paths
	// holds the alias text as a single element for "alias").
	ResolveAll(name, cwd string, env map[string]string) (kind string, paths []string, err error)
}

// whichResolver is set through RegisterResolver (executor.New passes a
// resolver.Adapter) so the which builtin can reach path resolution
// without an import cycle.
var whichResolver Resolver

// RegisterResolver wires a Resolver implementation into the which
// builtin. executor.New calls it each time an Executor is constructed.
func RegisterResolver(r Resolver) {
	whichResolver = r
}

func init() {
	Default.Register("which", Func(whichBuiltin))
}

// whichBuiltin mirrors original_source's which.rs: one line of output per
// resolved binary (every matching PATH entry when `-a`/`--all` is given,
// matching which.rs's all_results() vs first_result()), and the overall
// exit code is the count of unresolved binaries.
func whichBuiltin(ctx Ctx) Result {
	var binaries []string
	all := false
	for _, arg := range ctx.Args[1:] {
		switch arg {
		case "-a", "--all":
			all = true
		default:
			binaries = append(binaries, arg)
		}
	}

	if len(binaries) == 0 {
		return Continue(1)
	}

	if whichResolver == nil {
		writeErrf(ctx, "which: resolver not configured\n")
		return Continue(1)
	}

	unresolved := 0
	env := map[string]string{}
	for _, kv := range ctx.State.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			env[name] = value
		}
	}
	for _, name := range binaries {
		if !reportMatches(ctx, name, env, all) {
			unresolved++
		}
	}
	return Continue(unresolved)
}

// reportMatches writes one line per match for name and reports whether any
// match was found. With all false, only the first match is printed,
// mirroring which.rs's first_result(); with all true, every PATH entry is
// printed, mirroring all_results().
func reportMatches(ctx Ctx, name string, env map[string]string, all bool) bool {
	if !all {
		kind, path, err := whichResolver.Resolve(name, ctx.State.Cwd(), env)
		if err != nil {
			writeErrf(ctx, "which: no %s in (%s)\n", name, env["PATH"])
			return false
		}
		if kind == "builtin" {
			fmt.Fprintf(ctx.Stdout, "%s: shell builtin\n", name)
		} else {
			fmt.Fprintln(ctx.Stdout, path)
		}
		return true
	}

	kind, paths, err := whichResolver.ResolveAll(name, ctx.State.Cwd(), env)
	if err != nil {
		writeErrf(ctx, "which: no %s in (%s)\n", name, env["PATH"])
		return false
	}
	if kind == "builtin" {
		fmt.Fprintf(ctx.Stdout, "%s: shell builtin\n", name)
		return true
	}
	for _, path := range paths {
		fmt.Fprintln(ctx.Stdout, path)
	}
	return true
}
