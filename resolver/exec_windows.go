//go:build windows

package resolver

import (
	"os"
	"strings"
)

// windowsExecExts mirrors the default %PATHEXT% set, since the executor
// never mutates or reads host process environment for resolution (spec §6).
var windowsExecExts = []string{".exe", ".bat", ".cmd", ".com"}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	lower := strings.ToLower(path)
	for _, ext := range windowsExecExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
