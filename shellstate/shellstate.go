// Package shellstate implements ShellState: the immutable-by-clone view of
// environment variables, shell variables, cwd, the command table, and the
// KillSignal handle that the executor threads down the AST.
package shellstate

import (
	"github.com/opal-lang/shellexec/internal/invariant"
	"github.com/opal-lang/shellexec/killsignal"
)

// CommandTable maps a builtin/alias name to an opaque handle. The
// executor and resolver agree on the concrete handle type (builtin.Command
// or an alias target); shellstate only needs to clone the table by
// reference, never by value, since it is immutable after construction.
type CommandTable interface {
	Lookup(name string) (handle any, ok bool)
}

// State is the value-like, cheap-to-clone shell state described in spec §3.
//
// Invariants (enforced at every mutation point):
//  1. Cwd is always an absolute path.
//  2. A name is either in Exported or in shellVars, never both.
//  3. Signal is equal to or a child of whatever Signal the parent State
//     that produced this clone held.
type State struct {
	exported  map[string]string // exported env vars: name -> value
	shellVars map[string]string // unexported shell-local vars: name -> value

	cwd string

	commands CommandTable // shared by reference across clones

	positional []string // $0 .. $N, $0 is the program name
	lastExit   int      // $?
	lastBgPID  int

	signal *killsignal.Signal
}

// New constructs the initial State for a top-level Execute call.
func New(cwd string, env map[string]string, commands CommandTable, signal *killsignal.Signal) *State {
	invariant.Precondition(cwd != "", "cwd must not be empty")
	invariant.AbsPath(cwd, "cwd")
	invariant.NotNil(signal, "signal")

	exported := make(map[string]string, len(env))
	for k, v := range env {
		exported[k] = v
	}

	return &State{
		exported:  exported,
		shellVars: make(map[string]string),
		cwd:       cwd,
		commands:  commands,
		signal:    signal,
	}
}

// Clone returns a copy-on-write clone sharing the command table by
// reference. Mutating the clone's variable maps never affects the
// original, satisfying the "subshell / pipeline stage isolation" contract
// the executor relies on.
func (s *State) Clone() *State {
	exported := make(map[string]string, len(s.exported))
	for k, v := range s.exported {
		exported[k] = v
	}
	shellVars := make(map[string]string, len(s.shellVars))
	for k, v := range s.shellVars {
		shellVars[k] = v
	}
	positional := append([]string(nil), s.positional...)

	return &State{
		exported:   exported,
		shellVars:  shellVars,
		cwd:        s.cwd,
		commands:   s.commands,
		positional: positional,
		lastExit:   s.lastExit,
		lastBgPID:  s.lastBgPID,
		signal:     s.signal,
	}
}

// CloneWithChildSignal clones the state and swaps in a child of the
// current signal, for use when spawning a concurrently-running stage
// (pipeline stage, background task) that should be independently
// cancellable without affecting siblings.
func (s *State) CloneWithChildSignal() *State {
	clone := s.Clone()
	clone.signal = s.signal.NewChild()
	return clone
}

// Cwd returns the current working directory, always absolute.
func (s *State) Cwd() string { return s.cwd }

// Signal returns this state's KillSignal handle.
func (s *State) Signal() *killsignal.Signal { return s.signal }

// Commands returns the shared command table.
func (s *State) Commands() CommandTable { return s.commands }

// LastExit returns $?.
func (s *State) LastExit() int { return s.lastExit }

// LastBackgroundPID returns $!.
func (s *State) LastBackgroundPID() int { return s.lastBgPID }

// Positional returns $0..$N.
func (s *State) Positional() []string { return s.positional }

// Lookup resolves a variable for expansion: exported vars, then
// shell-local vars, returning ("", false) for unset names — spec §6 says
// unset names are treated as empty on expansion, so callers typically
// ignore the bool and use the empty string, but the bool lets
// ${NAME:?msg}-style error expansions distinguish unset from empty.
func (s *State) Lookup(name string) (string, bool) {
	if v, ok := s.exported[name]; ok {
		return v, true
	}
	if v, ok := s.shellVars[name]; ok {
		return v, true
	}
	return "", false
}

// IsExported reports whether name is in the exported set.
func (s *State) IsExported(name string) bool {
	_, ok := s.exported[name]
	return ok
}

// Environ returns the exported variables as a "NAME=value" slice, suitable
// for os/exec.Cmd.Env.
func (s *State) Environ() []string {
	out := make([]string, 0, len(s.exported))
	for k, v := range s.exported {
		out = append(out, k+"="+v)
	}
	return out
}

// Apply folds one EnvChange into the state in place. The executor calls
// this on a local clone in AST emission order, per spec §2's data-flow
// description and §5's ordering guarantee.
func (s *State) Apply(change EnvChange) {
	switch c := change.(type) {
	case SetVar:
		delete(s.shellVars, c.Name) // invariant (ii): never both exported and shell-local
		s.exported[c.Name] = c.Value
	case SetShellVar:
		delete(s.exported, c.Name)
		s.shellVars[c.Name] = c.Value
	case UnsetVar:
		delete(s.exported, c.Name)
		delete(s.shellVars, c.Name)
	case Cd:
		invariant.AbsPath(c.NewAbsolutePath, "Cd.NewAbsolutePath")
		s.exported["OLDPWD"] = s.cwd
		s.cwd = c.NewAbsolutePath
		s.exported["PWD"] = s.cwd
	case SetXTrace:
		if c.Enabled {
			s.shellVars["__xtrace"] = "1"
		} else {
			delete(s.shellVars, "__xtrace")
		}
	case SetExitCode:
		s.lastExit = c.Code
	case SetBackgroundPID:
		s.lastBgPID = c.PID
	case AliasDef, AliasRemove:
		// Alias bookkeeping lives in the command table, which the
		// resolver owns (resolver.Table.DefineAlias/RemoveAlias); Apply
		// leaves State unchanged for these, and the executor does not
		// forward them to the table.
	}
}

// ApplyAll folds every change in order.
func (s *State) ApplyAll(changes []EnvChange) {
	for _, c := range changes {
		s.Apply(c)
	}
}
