package mocks

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// MockEmbedding produces deterministic vectors derived from the input text.
// The same text always embeds to the same vector, so similarity-based
// assertions are stable across runs.
type MockEmbedding struct {
	Dims       int
	FailEmbed  bool
	FailHealth bool

	// EmbedCalls records every text passed to Embed or EmbedQuery
	EmbedCalls []string
}

var _ driven.EmbeddingService = (*MockEmbedding)(nil)

func NewMockEmbedding() *MockEmbedding {
	return &MockEmbedding{Dims: 1024}
}

func (m *MockEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.FailEmbed {
		return nil, fmt.Errorf("mock embedding failure")
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		m.EmbedCalls = append(m.EmbedCalls, t)
		vectors[i] = m.vectorFor(t)
	}
	return vectors, nil
}

func (m *MockEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := m.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *MockEmbedding) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.Dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return vec
}

func (m *MockEmbedding) Dimensions() int { return m.Dims }

func (m *MockEmbedding) Model() string { return "mock-embedding" }

func (m *MockEmbedding) HealthCheck(ctx context.Context) error {
	if m.FailHealth {
		return fmt.Errorf("mock embedding unhealthy")
	}
	return nil
}

func (m *MockEmbedding) Close() error { return nil }
