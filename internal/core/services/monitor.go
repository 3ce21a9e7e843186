package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/custodia-labs/qanda-core/internal/runtime"
)

// monitorInterval is the fixed sleep between background health checks
const monitorInterval = 30 * time.Second

// prewarmTimeout bounds a single prewarm round. Model loading on the
// gateway can take a while on cold start.
const prewarmTimeout = 5 * time.Minute

// ModelMonitor periodically verifies that the embedding and generation
// models are reachable and keeps the shared readiness flag current. The
// loop is idempotent and safe to overlap with request handling.
type ModelMonitor struct {
	services *runtime.Services
	logger   *slog.Logger
}

// NewModelMonitor creates a ModelMonitor
func NewModelMonitor(services *runtime.Services, logger *slog.Logger) *ModelMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelMonitor{services: services, logger: logger}
}

// Check verifies both model services and updates the readiness flag.
// Returns the new readiness state.
func (m *ModelMonitor) Check(ctx context.Context) bool {
	embedding := m.services.EmbeddingService()
	llm := m.services.LLMService()
	if embedding == nil || llm == nil {
		m.services.SetModelsReady(false)
		return false
	}

	if err := llm.Ping(ctx); err != nil {
		m.logger.Warn("LLM health check failed", "error", err)
		m.services.SetModelsReady(false)
		return false
	}
	if err := embedding.HealthCheck(ctx); err != nil {
		m.logger.Warn("embedding health check failed", "error", err)
		m.services.SetModelsReady(false)
		return false
	}

	m.services.SetModelsReady(true)
	return true
}

// Prewarm loads the models by issuing one tiny embed and one tiny
// generation call, then re-checks readiness.
func (m *ModelMonitor) Prewarm(ctx context.Context) bool {
	embedding := m.services.EmbeddingService()
	llm := m.services.LLMService()
	if embedding == nil || llm == nil {
		m.services.SetModelsReady(false)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, prewarmTimeout)
	defer cancel()

	m.logger.Info("pre-warming models", "embedding", embedding.Model(), "llm", llm.Model())

	if _, err := embedding.EmbedQuery(ctx, "Warmup test"); err != nil {
		m.logger.Warn("embedding prewarm failed", "error", err)
		m.services.SetModelsReady(false)
		return false
	}

	if _, err := llm.Generate(ctx, "Hi", "", driven.GenerateOptions{MaxTokens: 1}); err != nil {
		m.logger.Warn("LLM prewarm failed", "error", err)
		m.services.SetModelsReady(false)
		return false
	}

	m.services.SetModelsReady(true)
	m.logger.Info("models pre-warmed")
	return true
}

// Run loops until the context is cancelled, checking model health on a
// fixed interval and prewarming when a check fails.
func (m *ModelMonitor) Run(ctx context.Context) {
	// Load the models up front so the first request does not pay the
	// cold-start cost.
	m.Prewarm(ctx)

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.Check(ctx) {
				m.Prewarm(ctx)
			}
		}
	}
}
