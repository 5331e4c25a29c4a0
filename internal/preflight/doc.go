// Package preflight provides readiness checks for the model backend, the
// data directory and the external tools the teach-back client shells out to.
//
// These checks run in two contexts:
//   - The "teachback status" command renders every result as a table.
//   - Live Q&A calls CheckCapture before connecting, so a missing microphone
//     is reported before any backend session is opened.
package preflight
