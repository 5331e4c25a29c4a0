// Package pipeline implements the two model-backed stages of a teach-back
// cycle: classifying a document into the closed taxonomy and generating the
// simplified text, quiz and category details for a confirmed category.
//
// Both stages go through the ai.Gateway, so malformed replies are retried once
// and surface as services.ErrGenerationFailure. The classifier always returns
// its best guess; applying the confidence threshold is the caller's job.
package pipeline
