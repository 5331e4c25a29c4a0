package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"teachback/internal/fileutil"
	"teachback/internal/services"
)

// timeNow is replaced in tests.
var timeNow = time.Now

func writeTextFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func deviceRemovedError(device string) error {
	return services.Wrap(services.ErrDeviceUnavailable, "live", "monitor", "audio device removed: "+device, nil)
}
