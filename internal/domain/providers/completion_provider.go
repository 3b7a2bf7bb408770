package providers

import (
	"context"
)

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	// Temperature of nil leaves sampling to the model's default. Some models
	// reject any explicit value.
	Temperature *float64
	// MaxTokens of zero leaves the limit to the model.
	MaxTokens int
}

// Temperature returns a sampling temperature for CompletionRequest
func Temperature(t float64) *float64 {
	return &t
}

// CompletionProvider is the language model capability used by the workflow.
// All calls may fail; callers treat failure as recoverable.
type CompletionProvider interface {
	// Classify sends prompt to the classifier model at its default temperature.
	Classify(ctx context.Context, prompt string) (string, error)

	// Complete returns the model's text output for req.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Embed returns the embedding of text under model.
	Embed(ctx context.Context, text, model string) ([]float32, error)
}
