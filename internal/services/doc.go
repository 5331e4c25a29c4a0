// Package services defines shared utilities consumed by the teach-back pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, and correlation
//     identifiers for logging.
//   - The failure taxonomy (generation failure, short input, corrupted session,
//     missing devices) plus the Wrap helper that keeps stage context in the
//     message while preserving the marker for errors.Is checks.
//   - UserMessage, which turns a marker into the notice shown in the terminal.
//
// Backends for the generative model live in the subpackages.
package services
