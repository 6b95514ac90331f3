// Package suggest implements the reply-suggestion pipeline: thread context
// assembly for reply messages and orchestration of the generation backend.
package suggest
