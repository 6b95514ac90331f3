// Package ollama is the client for the local Ollama generation backend.
//
// It wraps the non-streaming /api/generate endpoint with prompt
// construction, bounded retries, and response parsing, and probes /api/tags
// for availability checks. Model output is normalized into a list of reply
// suggestions; responses that cannot be parsed at all fall back to a canned
// list so callers always have something to show.
package ollama
