//go:build !windows

package shellpipe

import (
	"os"
	"syscall"
)

// dupFile duplicates f's underlying descriptor so the clone can be closed
// independently, mirroring the teacher's per-platform process-control
// split (local_session_unix.go / local_session_windows.go).
func dupFile(f *os.File) (*os.File, error) {
	fd, err := syscall.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}
