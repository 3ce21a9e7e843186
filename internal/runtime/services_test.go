package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven/mocks"
)

func TestServicesReadinessFlag(t *testing.T) {
	s := NewServices(mocks.NewMockEmbedding(), mocks.NewMockLLM())

	assert.False(t, s.ModelsReady(), "services start not ready")

	s.SetModelsReady(true)
	assert.True(t, s.ModelsReady())

	s.SetModelsReady(false)
	assert.False(t, s.ModelsReady())
}

func TestServicesSwapEmbedding(t *testing.T) {
	first := mocks.NewMockEmbedding()
	s := NewServices(first, mocks.NewMockLLM())

	replacement := mocks.NewMockEmbedding()
	replacement.Dims = 768
	s.SetEmbeddingService(replacement)

	got := s.EmbeddingService()
	require.NotNil(t, got)
	assert.Equal(t, 768, got.Dimensions())
}

func TestServicesSwapLLM(t *testing.T) {
	s := NewServices(mocks.NewMockEmbedding(), mocks.NewMockLLM())

	replacement := mocks.NewMockLLM("hello")
	s.SetLLMService(replacement)

	got := s.LLMService()
	require.NotNil(t, got)
	assert.Equal(t, "mock-llm", got.Model())
}

func TestServicesConcurrentAccess(t *testing.T) {
	s := NewServices(mocks.NewMockEmbedding(), mocks.NewMockLLM())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetModelsReady(true)
			_ = s.EmbeddingService()
		}()
		go func() {
			defer wg.Done()
			_ = s.ModelsReady()
			_ = s.LLMService()
		}()
	}
	wg.Wait()

	assert.True(t, s.ModelsReady())
}

func TestServicesClose(t *testing.T) {
	s := NewServices(mocks.NewMockEmbedding(), mocks.NewMockLLM())
	require.NoError(t, s.Close())
}
