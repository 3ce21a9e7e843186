package driven

import (
	"context"
)

// GenerateOptions controls sampling for a single generation call
type GenerateOptions struct {
	// Temperature is the sampling temperature; low values favour determinism
	Temperature float32

	// MaxTokens bounds the output token budget (0 means provider default)
	MaxTokens int
}

// LLMService provides text generation for classification and answer
// synthesis. Callers select the model per use: classification runs against a
// small, fast model with a short timeout; synthesis against the full model.
type LLMService interface {
	// Generate produces text for a prompt under a system instruction
	Generate(ctx context.Context, prompt, system string, opts GenerateOptions) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
