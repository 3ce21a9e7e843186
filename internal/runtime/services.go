package runtime

import (
	"sync"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// Services holds references to the model services together with the shared
// models-ready flag. The flag is read by the query router and the health
// endpoint and written only by the model monitor's check/prewarm routines.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	embeddingService driven.EmbeddingService
	llmService       driven.LLMService

	modelsReady bool
}

// NewServices creates a new Services registry
func NewServices(embedding driven.EmbeddingService, llm driven.LLMService) *Services {
	return &Services{
		embeddingService: embedding,
		llmService:       llm,
	}
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// LLMService returns the current LLM service (may be nil)
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llmService
}

// ModelsReady reports whether both model services passed their last check
func (s *Services) ModelsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelsReady
}

// SetModelsReady updates the models-ready flag
func (s *Services) SetModelsReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelsReady = ready
}

// SetEmbeddingService replaces the embedding service, closing the old one
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
}

// SetLLMService replaces the LLM service, closing the old one
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.llmService != nil {
		_ = s.llmService.Close()
	}
	s.llmService = svc
}

// Close shuts down all services and clears the readiness flag
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.llmService != nil {
		_ = s.llmService.Close()
		s.llmService = nil
	}
	s.modelsReady = false

	return nil
}
