// Package gemini provides a REST client for the Google Gemini
// generateContent API.
//
// This package is used by:
//   - Transcription stage: audio plus instructions in, timed transcript out
//   - Translation: batch subtitle translation with the gemini provider
//   - CLI model listing and preflight key checks
//
// # Request Shape
//
// Requests carry an optional system instruction, ordered content turns of
// text and inline media parts, the configured generation settings, and
// safety settings that disable blocking for every harm category. Subtitle
// dialogue trips default filters often enough that anything else is
// unusable.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Generate: one-shot generateContent call.
// Client.NewSession / Session.Send: multi-turn conversation with history.
// Client.ListModels / Client.ResolveModel: model discovery.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, empty responses, and network
// timeouts with exponential backoff (base 15s, doubling, with 20% jitter,
// up to 3 attempts by default) and honors Retry-After. Safety blocks,
// other 4xx responses, and context cancellation abort immediately.
//
// # Credentials
//
// The API key travels only in the x-goog-api-key header. It is never
// logged and never appears in error text.
package gemini
