// Package builtin implements the uniform builtin-command contract from
// spec §4.6 and a reference set of builtins, in the teacher's
// registry-with-init() style (cli/internal/builtins's
// decorators.RegisterAction pattern, itself the database/sql driver
// registration idiom also seen in core/decorator/registry.go).
package builtin

import (
	"fmt"
	"io"
	"sync"

	"github.com/opal-lang/shellexec/internal/invariant"
	"github.com/opal-lang/shellexec/shellstate"
)

// Ctx is the execution context handed to a builtin: its raw argv (args[0]
// is the builtin's own name), a state snapshot, and the three pipe
// endpoints. Builtins must treat State as read-only and report every
// mutation as an EnvChange in the returned Result — spec §4.6's "never
// touch shared state directly" rule.
type Ctx struct {
	Args   []string
	State  *shellstate.State
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result mirrors executor.Result's shape without importing the executor
// package (which in turn depends on builtin for dispatch), avoiding an
// import cycle. The executor package converts a Result into its own type
// field by field when it runs a builtin.
type Result struct {
	Exited   bool
	ExitCode int
	Changes  []shellstate.EnvChange
}

// Continue is the non-exit Result constructor.
func Continue(exitCode int, changes ...shellstate.EnvChange) Result {
	return Result{ExitCode: exitCode, Changes: changes}
}

// Exit is the `exit` builtin's Result constructor.
func Exit(exitCode int) Result {
	return Result{Exited: true, ExitCode: exitCode}
}

// FromExitCode maps a C-style 0/1 status into a Result, matching spec
// §4.6's description of true/false.
func FromExitCode(code int) Result {
	invariant.Precondition(code == 0 || code == 1, "FromExitCode expects 0 or 1, got %d", code)
	return Continue(code)
}

// Command is the contract every builtin implements.
type Command interface {
	Execute(ctx Ctx) Result
}

// Func adapts a plain function to the Command interface.
type Func func(ctx Ctx) Result

func (f Func) Execute(ctx Ctx) Result { return f(ctx) }

// Registry is the name -> builtin table. The zero value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Command)}
}

// Register adds a builtin under name. Panics on duplicate registration,
// since builtin names are a fixed compile-time set, not user input.
func (r *Registry) Register(name string, cmd Command) {
	invariant.Precondition(name != "", "builtin name must not be empty")
	invariant.NotNil(cmd, "cmd")

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		panic("builtin: duplicate registration for " + name)
	}
	r.entries[name] = cmd
}

// Lookup retrieves a builtin by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.entries[name]
	return cmd, ok
}

// Names returns every registered builtin name, for `which`/tab-completion
// style introspection.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	return out
}

// Default is the registry populated by this package's init() functions
// with the reference builtin set (spec §1's collaborator list).
var Default = NewRegistry()

// unsupportedFlag writes the standard diagnostic spec §4.6 requires for
// an unrecognized flag and returns exit code 1.
func unsupportedFlag(ctx Ctx, name, flag string) Result {
	writeErrf(ctx, "%s: unsupported flag: %s\n", name, flag)
	return Continue(1)
}

func writeErrf(ctx Ctx, format string, args ...any) {
	if ctx.Stderr == nil {
		return
	}
	fmt.Fprintf(ctx.Stderr, format, args...)
}
