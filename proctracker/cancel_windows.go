//go:build windows

package proctracker

import "os/exec"

// configureCommandForCancellation is a no-op on Windows: there is no
// process-group primitive equivalent to Setpgid, so termination falls back
// to killing the process directly (mirrors
// core/decorator/local_session_windows.go's simpler Windows path).
func configureCommandForCancellation(cmd *exec.Cmd) {}

// terminateCommandOnCancel sends the CTRL_C_EVENT-equivalent by killing
// the process, matching spec §5's "CTRL_C_EVENT on Windows" mapping in
// spirit (a full console-event implementation requires CreateProcess
// flags this reference tracker does not set up).
func terminateCommandOnCancel(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
