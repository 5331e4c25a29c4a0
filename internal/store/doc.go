// Package store provides the durable key-value slots the client persists into.
//
// Sessions, the glossary, counters and the tour flag are each stored under a
// versioned key. SQLite (WAL mode) backs the default implementation, with a
// flock-guarded lock file so only one interactive process writes at a time.
// Memory offers the same contract for tests and throwaway demo runs.
package store
