package ai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

const (
	// DefaultEmbeddingModel produces 1024-dimensional vectors.
	DefaultEmbeddingModel = "mxbai-embed-large"

	defaultEmbeddingDims    = 1024
	defaultEmbeddingTimeout = 300 * time.Second
)

// EmbeddingConfig configures the Ollama embedding client. Ollama exposes
// an OpenAI-compatible API under /v1, so BaseURL should end with /v1.
type EmbeddingConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// OllamaEmbedding computes text embeddings via a local Ollama instance.
type OllamaEmbedding struct {
	client  *openai.Client
	model   string
	dims    int
	timeout time.Duration
}

var _ driven.EmbeddingService = (*OllamaEmbedding)(nil)

func NewOllamaEmbedding(cfg EmbeddingConfig) *OllamaEmbedding {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultEmbeddingDims
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEmbeddingTimeout
	}

	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = cfg.BaseURL

	return &OllamaEmbedding{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		dims:    cfg.Dimensions,
		timeout: cfg.Timeout,
	}
}

// Embed returns one vector per input text, in input order.
func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OllamaEmbedding) Dimensions() int {
	return e.dims
}

func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the model answers by embedding a short probe.
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

func (e *OllamaEmbedding) Close() error {
	return nil
}
