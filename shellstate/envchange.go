package shellstate

// EnvChange is the sum type spec §3 describes: a declarative mutation
// produced by a stage and applied by the parent evaluator to its local
// State clone, in emission order.
type EnvChange interface {
	envChange()
}

// SetVar exports NAME=value (removing any shadowing shell-local entry).
type SetVar struct {
	Name  string
	Value string
}

func (SetVar) envChange() {}

// SetShellVar sets an unexported shell-local NAME=value (removing any
// shadowing exported entry).
type SetShellVar struct {
	Name  string
	Value string
}

func (SetShellVar) envChange() {}

// UnsetVar removes NAME from both the exported and shell-local maps.
type UnsetVar struct {
	Name string
}

func (UnsetVar) envChange() {}

// Cd changes the working directory to an already-resolved absolute path.
type Cd struct {
	NewAbsolutePath string
}

func (Cd) envChange() {}

// SetXTrace toggles `set -x`-style command tracing.
type SetXTrace struct {
	Enabled bool
}

func (SetXTrace) envChange() {}

// SetExitCode records $?. Emitted by the executor itself after each
// foreground item completes, not typically by builtins.
type SetExitCode struct {
	Code int
}

func (SetExitCode) envChange() {}

// SetBackgroundPID records $! after a `cmd &` spawn.
type SetBackgroundPID struct {
	PID int
}

func (SetBackgroundPID) envChange() {}

// AliasDef defines or redefines an alias.
type AliasDef struct {
	Name  string
	Value string
}

func (AliasDef) envChange() {}

// AliasRemove removes an alias definition.
type AliasRemove struct {
	Name string
}

func (AliasRemove) envChange() {}
