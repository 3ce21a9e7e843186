package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

const (
	// DefaultLLMModel answers user questions.
	DefaultLLMModel = "llama3.2"
	// DefaultClassifierModel is a small model used for query classification.
	DefaultClassifierModel = "llama3.2:1b"
)

// LLMConfig configures an Ollama chat-completion client.
type LLMConfig struct {
	BaseURL string
	Model   string
}

// OllamaLLM generates chat completions via a local Ollama instance.
// Separate instances are used for the answer model and the classifier
// model so each can be swapped independently.
type OllamaLLM struct {
	client *openai.Client
	model  string
}

var _ driven.LLMService = (*OllamaLLM)(nil)

func NewOllamaLLM(cfg LLMConfig) *OllamaLLM {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}

	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = cfg.BaseURL

	return &OllamaLLM{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Generate runs a single chat completion. The system message is omitted
// when empty. The caller owns the deadline on ctx.
func (l *OllamaLLM) Generate(ctx context.Context, prompt, system string, opts driven.GenerateOptions) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion with %s: %w", l.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion with %s: empty response", l.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (l *OllamaLLM) Model() string {
	return l.model
}

// Ping verifies the model is loaded with a minimal one-token request.
func (l *OllamaLLM) Ping(ctx context.Context) error {
	_, err := l.Generate(ctx, "Hi", "", driven.GenerateOptions{MaxTokens: 1})
	if err != nil {
		return fmt.Errorf("llm ping: %w", err)
	}
	return nil
}

func (l *OllamaLLM) Close() error {
	return nil
}
