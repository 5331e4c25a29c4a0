// Package persistence stores teach-back state in the key-value store.
//
// Sessions keeps one saved snapshot under a versioned key and fails closed:
// a record that cannot be parsed or violates the snapshot's invariants is
// deleted and reported as services.ErrCorruptedSession, never partially
// restored. Counters keeps plain integer usage counters and TourFlag records
// whether the guided tour has been completed.
package persistence
