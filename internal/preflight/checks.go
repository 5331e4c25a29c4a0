package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"teachback/internal/config"
	"teachback/internal/deps"
)

// Pinger is implemented by both model backends.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// CheckBackend verifies that the model API is reachable and the key is valid.
// It uses a 30-second timeout.
func CheckBackend(ctx context.Context, name string, pinger Pinger) Result {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := pinger.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeBackendError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckAPIKey reports whether a key is configured for the selected provider.
func CheckAPIKey(cfg *config.Config) Result {
	const name = "API key"
	if err := cfg.RequireAPIKey(); err != nil {
		return Result{Name: name, Detail: "missing (" + cfg.AI.Provider + ")"}
	}
	return Result{Name: name, Passed: true, Detail: "configured (" + cfg.AI.Provider + ")"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckExportDirectory passes when the export directory is usable or does not
// exist yet; it is created on first export.
func CheckExportDirectory(path string) Result {
	const name = "Export directory"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first export)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckSystemDeps evaluates the external tools used for audio and document
// import. None are required for the core teach-back flow.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries(deps.ClientRequirements(cfg.Audio.CaptureCommand, cfg.Extract.PDFToTextCommand))
	playback := deps.ResolveCompanion("Playback", "Speaker output for read-aloud and live Q&A",
		cfg.Audio.CaptureCommand, cfg.Audio.PlaybackCommand)
	playback.Optional = true
	return append(statuses, playback)
}

// summarizeBackendError produces a human-readable summary for health check failures.
func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
