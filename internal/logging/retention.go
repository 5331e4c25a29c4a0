package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RotateIfLarge renames the active log file to a timestamped sibling once it
// grows past maxBytes. Rotated files match RotatedPattern.
func RotateIfLarge(logDir string, maxBytes int64, now time.Time) (string, error) {
	if strings.TrimSpace(logDir) == "" || maxBytes <= 0 {
		return "", nil
	}
	active := filepath.Join(logDir, LogFileName)
	info, err := os.Stat(active)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < maxBytes {
		return "", nil
	}
	rotated := filepath.Join(logDir, "teachback-"+now.UTC().Format("20060102T150405")+".log")
	if err := os.Rename(active, rotated); err != nil {
		return "", fmt.Errorf("rotate log file: %w", err)
	}
	return rotated, nil
}

// RotatedPattern matches files produced by RotateIfLarge.
const RotatedPattern = "teachback-*.log"

// CleanupOldLogs removes rotated log files in logDir older than retentionDays.
// A retentionDays value of 0 disables pruning. The active log is never removed.
func CleanupOldLogs(logger *slog.Logger, logDir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || strings.TrimSpace(logDir) == "" {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == LogFileName {
			continue
		}
		if matched, err := filepath.Match(RotatedPattern, name); err != nil || !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(logDir, name)
		if err := os.Remove(fullPath); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", fullPath),
				Error(err),
				String(FieldErrorHint, "check file permissions on paths.log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Info("log pruned",
				String("path", fullPath),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	return removed
}
