// Package llm wraps the generative model providers behind a single
// text-completion interface used by the risk judge and the recommender.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider has no credentials or model.
var ErrNotConfigured = errors.New("llm: generative model not configured")

// Request is a single-turn completion request.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int32
	// Schema, when set, asks providers that support it for structured JSON output.
	Schema     map[string]any
	SchemaName string
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
}
