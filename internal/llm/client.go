// Package llm provides text completion clients for LLM provider APIs.
package llm

import "context"

// CompletionRequest describes a single prompt completion.
type CompletionRequest struct {
	// Prompt is the user prompt sent to the model.
	Prompt string
	// MaxTokens caps the length of the generated completion.
	MaxTokens int
	// Temperature overrides the client default when non-nil.
	Temperature *float64
}

// CompletionClient sends a prompt to an LLM provider and returns the raw
// text of the completion. Implementations must be safe for concurrent use.
type CompletionClient interface {
	// Complete performs a single completion call.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider returns the provider name (e.g. "anthropic").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
