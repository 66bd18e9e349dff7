// Package llm abstracts language-model completion behind a single Provider
// shape and layers an ordered fallback Chain on top. The orchestration code
// is written against Provider only; provider quirks stay inside the
// adapters.
package llm

import "context"

// Provider is an external language-model completion capability. Complete may
// fail or time out; an empty completion is treated by callers as a failure.
type Provider interface {
	// Name identifies the provider, e.g. "openai" or "anthropic".
	Name() string

	// Complete sends a system prompt and user text and returns the
	// model's reply.
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}
