// Package llm provides an OpenRouter chat client used as an alternative
// backend to Gemini.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.GenerateJSON: ai.Backend; sends the response schema as a strict
// json_schema response format and images as base64 data URLs.
// Client.GenerateText / Client.TranscribeAudio: speech translation support.
// Client.StreamChat: chat helper replies over server-sent events.
// Client.HealthCheck: verify API key and model availability.
//
// Speech synthesis and live audio are not available through this provider.
//
// # Retry Behaviour
//
// Non-streaming requests retry on HTTP 408/429/5xx errors, empty content and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
package llm
