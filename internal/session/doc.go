// Package session drives one teach-back cycle: input, classification,
// generation, the quiz and its metrics, and save/load of the result.
//
// Session serialises commands with a mutex. Generate and OverrideCategory run
// backend calls outside the lock and mark the session busy meanwhile; any
// other command issued before they finish fails with ErrBusy. Listeners
// registered with OnChange receive a Snapshot after every transition.
package session
