// Package resolver implements the command name → builtin/alias/executable
// resolution described in spec §4.5: builtin table first, then alias
// table, then PATH search, grounded on the teacher's "database/sql driver
// registration" Register/Lookup pattern (core/decorator/registry.go).
package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/internal/invariant"
)

// Kind discriminates what a Target resolved to.
type Kind int

const (
	KindBuiltin Kind = iota
	KindAlias
	KindExternal
)

// Target is the result of a successful resolution.
type Target struct {
	Kind    Kind
	Name    string        // the name that was resolved
	Builtin builtin.Command // set when Kind == KindBuiltin
	Path    string        // absolute executable path when Kind == KindExternal
	Alias   string        // the alias expansion text when Kind == KindAlias
}

// Table holds the alias definitions and the builtin registry consulted
// during resolution. It satisfies shellstate.CommandTable so a *Table can
// be shared by reference across every State clone.
type Table struct {
	builtins *builtin.Registry

	mu      sync.RWMutex
	aliases map[string]string
}

// NewTable creates a resolver table backed by the given builtin registry
// (typically builtin.Default, or a custom_commands-augmented registry per
// spec §4.1's options.custom_commands).
func NewTable(builtins *builtin.Registry) *Table {
	invariant.NotNil(builtins, "builtins")
	return &Table{builtins: builtins, aliases: make(map[string]string)}
}

// Lookup implements shellstate.CommandTable by exposing the builtin
// registry entry, so callers that only need quick existence checks don't
// have to import this package.
func (t *Table) Lookup(name string) (any, bool) {
	return t.builtins.Lookup(name)
}

// DefineAlias records or replaces an alias, applying EnvChange AliasDef.
func (t *Table) DefineAlias(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[name] = value
}

// RemoveAlias removes an alias, applying EnvChange AliasRemove.
func (t *Table) RemoveAlias(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.aliases, name)
}

func (t *Table) lookupAlias(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.aliases[name]
	return v, ok
}

func (t *Table) aliasNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.aliases))
	for name := range t.aliases {
		names = append(names, name)
	}
	return names
}

// PathResolutionError reports that no builtin, alias, or PATH entry
// matched name. Suggestion, when non-empty, is the closest known builtin
// or alias name, offered as a "did you mean" hint.
type PathResolutionError struct {
	Name          string
	SearchedPaths []string
	Suggestion    string
}

func (e *PathResolutionError) Error() string {
	if e.Suggestion != "" {
		return e.Name + ": command not found (did you mean " + e.Suggestion + "?)"
	}
	return e.Name + ": command not found"
}

// suggestName finds the closest known builtin or alias name to name, using
// the same fuzzy-ranking approach as the teacher's
// runtime/planner.findClosestMatch, retargeted from "closest function name"
// to "closest command name" for the resolver's not-found diagnostic.
func suggestName(t *Table, name string) string {
	candidates := append(t.builtins.Names(), t.aliasNames()...)
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// Resolve implements spec §4.5's priority order: builtin, then alias,
// then PATH. cwd and env are supplied explicitly (rather than read from
// the host process) because resolution must never depend on or mutate
// process-global state, per spec §6.
func Resolve(t *Table, name, cwd string, env map[string]string) (Target, error) {
	invariant.NotNil(t, "table")
	invariant.Precondition(name != "", "name must not be empty")

	if cmd, ok := t.builtins.Lookup(name); ok {
		return Target{Kind: KindBuiltin, Name: name, Builtin: cmd}, nil
	}

	if alias, ok := t.lookupAlias(name); ok {
		return Target{Kind: KindAlias, Name: name, Alias: alias}, nil
	}

	path, searched, err := lookPath(name, cwd, env["PATH"])
	if err != nil {
		return Target{}, &PathResolutionError{Name: name, SearchedPaths: searched, Suggestion: suggestName(t, name)}
	}
	return Target{Kind: KindExternal, Name: name, Path: path}, nil
}

// ResolveAll behaves like Resolve but, for an external command, returns
// every matching PATH entry instead of stopping at the first — the
// `which -a`/`--all` behavior spec §4.6 requires. A builtin or alias name
// has only one possible resolution, so those cases still return a single
// Target.
func ResolveAll(t *Table, name, cwd string, env map[string]string) ([]Target, error) {
	invariant.NotNil(t, "table")
	invariant.Precondition(name != "", "name must not be empty")

	if cmd, ok := t.builtins.Lookup(name); ok {
		return []Target{{Kind: KindBuiltin, Name: name, Builtin: cmd}}, nil
	}

	if alias, ok := t.lookupAlias(name); ok {
		return []Target{{Kind: KindAlias, Name: name, Alias: alias}}, nil
	}

	paths, searched, err := lookPathAll(name, cwd, env["PATH"])
	if err != nil {
		return nil, &PathResolutionError{Name: name, SearchedPaths: searched, Suggestion: suggestName(t, name)}
	}
	targets := make([]Target, len(paths))
	for i, p := range paths {
		targets[i] = Target{Kind: KindExternal, Name: name, Path: p}
	}
	return targets, nil
}

// lookPath searches PATH entries for an executable named name, resolving
// relative entries against cwd rather than the host process's working
// directory. Mirrors os/exec.LookPath's algorithm without depending on the
// process's real working directory or $PATH.
func lookPath(name, cwd, pathEnv string) (resolved string, searched []string, err error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		abs := name
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, name)
		}
		if isExecutable(abs) {
			return abs, nil, nil
		}
		return "", []string{abs}, os.ErrNotExist
	}

	dirs := filepath.SplitList(pathEnv)
	for _, dir := range dirs {
		if dir == "" {
			dir = cwd
		} else if !filepath.IsAbs(dir) {
			dir = filepath.Join(cwd, dir)
		}
		candidate := filepath.Join(dir, name)
		searched = append(searched, candidate)
		if isExecutable(candidate) {
			return candidate, searched, nil
		}
	}
	return "", searched, os.ErrNotExist
}

// lookPathAll is lookPath's multi-match counterpart: instead of stopping at
// the first hit, it keeps searching every PATH entry and returns all
// executables named name, in PATH order.
func lookPathAll(name, cwd, pathEnv string) (resolved []string, searched []string, err error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		abs := name
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, name)
		}
		if isExecutable(abs) {
			return []string{abs}, nil, nil
		}
		return nil, []string{abs}, os.ErrNotExist
	}

	dirs := filepath.SplitList(pathEnv)
	for _, dir := range dirs {
		if dir == "" {
			dir = cwd
		} else if !filepath.IsAbs(dir) {
			dir = filepath.Join(cwd, dir)
		}
		candidate := filepath.Join(dir, name)
		searched = append(searched, candidate)
		if isExecutable(candidate) {
			resolved = append(resolved, candidate)
		}
	}
	if len(resolved) == 0 {
		return nil, searched, os.ErrNotExist
	}
	return resolved, searched, nil
}

