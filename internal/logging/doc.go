// Package logging assembles structured slog loggers and formatting helpers used
// across the teach-back client.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code can tag log lines with the
// session ID, stage and shell tab. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
//
// The interactive shell draws on the terminal, so NewFromConfig routes records
// to the log file and only mirrors them to stderr in verbose mode.
package logging
