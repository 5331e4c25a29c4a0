// Package gemini adapts the Google Gen AI SDK to the teach-back backends.
//
// Client implements ai.Backend (schema-constrained JSON), chat.Streamer
// (streamed chat replies), speech.Backend (prebuilt-voice synthesis, audio
// transcription and plain text generation) and live.Backend (bidirectional
// voice sessions with input and output transcription).
//
// Response schemas are written with jsonschema-go throughout the module and
// converted to the SDK's OpenAPI-style schema here.
package gemini
