// Package quiz models the comprehension quiz lifecycle:
// NotStarted → InProgress → Submitted → Mastered, with Submitted → InProgress
// for Try Again.
//
// Answer options are shuffled once per cycle (when the quiz starts and on each
// Try Again), independently per question, so repeated renders see a stable
// order. Submitting with every answer correct moves straight to Mastered.
package quiz
