package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveCompanion reports the binary named companion, preferring one that
// sits next to primary. arecord and aplay ship together in alsa-utils, so a
// custom capture path implies where playback lives.
func ResolveCompanion(name, description, primary, companion string) Status {
	result := Status{Name: name, Description: description}
	companion = strings.TrimSpace(companion)
	if companion == "" {
		result.Detail = "command not configured"
		return result
	}

	if filepath.Base(companion) == companion {
		if resolved, err := exec.LookPath(strings.TrimSpace(primary)); err == nil && strings.TrimSpace(primary) != "" {
			candidate := filepath.Join(filepath.Dir(resolved), executableName(companion))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Command = candidate
				result.Available = true
				return result
			}
		}
	}

	if path, err := exec.LookPath(companion); err == nil {
		result.Command = path
		result.Available = true
		return result
	}

	result.Command = companion
	result.Detail = fmt.Sprintf("binary %q not found", companion)
	return result
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
