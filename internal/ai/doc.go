// Package ai is the typed gateway between the teach-back stages and the
// generative model backend.
//
// Call turns a PromptSpec plus a JSON Schema into a decoded value:
// the backend reply is decoded (tolerating code fences and stray prose),
// validated against the schema with jsonschema-go, unmarshalled into a fresh
// value of the caller's type and passed through the caller's finish hook for
// domain invariants. Any failure triggers exactly one retry with a corrective
// directive appended to the prompt; a second failure is reported as
// services.ErrGenerationFailure. Every attempt runs under its own deadline.
//
// Backends (Gemini, OpenRouter) implement the small Backend interface and are
// injected, so tests drive the gateway with scripted replies.
package ai
