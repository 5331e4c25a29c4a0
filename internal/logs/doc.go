// Package logs reads the teachback log file for the `teachback logs` command.
//
// Tail returns the last N lines or everything after a byte offset, and can
// block briefly in follow mode until new records are appended. A Filter
// narrows the output to one teach-back session or one component and
// understands both the console and JSON log formats.
package logs
