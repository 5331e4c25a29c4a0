// Package teachback defines the domain model shared by every stage of the
// teach-back flow.
//
// It covers the closed document taxonomy (Category), the classifier result,
// the generated content with its quiz items and the six category-specific
// detail branches, the JSON Schemas handed to the model, and the canned demo
// data used by the guided tour. Only one detail branch may be populated and
// it must match the content's category; Content.Details falls back to "no
// details" rather than trusting a mismatched payload.
package teachback
