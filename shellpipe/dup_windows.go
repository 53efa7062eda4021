//go:build windows

package shellpipe

import (
	"os"

	"golang.org/x/sys/windows"
)

// dupFile duplicates f's underlying handle so the clone can be closed
// independently of the original, mirroring the teacher's per-platform
// process-control split (local_session_unix.go / local_session_windows.go).
func dupFile(f *os.File) (*os.File, error) {
	var dup windows.Handle
	proc := windows.CurrentProcess()
	src := windows.Handle(f.Fd())
	if err := windows.DuplicateHandle(proc, src, proc, &dup, 0, true, windows.DUPLICATE_SAME_ACCESS); err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(dup), f.Name()), nil
}
