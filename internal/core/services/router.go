package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driving"
	"github.com/custodia-labs/qanda-core/internal/runtime"
)

// NoDocumentsAnswer is returned in answer mode when retrieval produced no
// candidates. The generation model is not invoked in that case.
const NoDocumentsAnswer = "Keine relevanten Dokumente gefunden."

// Ensure QueryRouter implements QueryService
var _ driving.QueryService = (*QueryRouter)(nil)

// QueryRouterConfig holds the router's collaborators
type QueryRouterConfig struct {
	Classifier  *IntentClassifier
	Synthesizer *AnswerSynthesizer
	VectorStore driven.VectorStore
	Services    *runtime.Services

	// CorpusPrefix limits retrieval to the managed corpus namespace
	CorpusPrefix string

	// TrashExclude hides the soft-delete namespace from retrieval
	TrashExclude string

	Logger *slog.Logger
}

// QueryRouter composes classification, retrieval and synthesis:
// classify -> embed -> retrieve top-limit -> branch to file results or a
// synthesised answer. It has no side effects besides the model and store
// calls and is safe to invoke repeatedly with the same query.
type QueryRouter struct {
	classifier  *IntentClassifier
	synthesizer *AnswerSynthesizer
	store       driven.VectorStore
	services    *runtime.Services
	filter      driven.SearchFilter
	logger      *slog.Logger
}

// NewQueryRouter creates a QueryRouter
func NewQueryRouter(cfg QueryRouterConfig) *QueryRouter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryRouter{
		classifier:  cfg.Classifier,
		synthesizer: cfg.Synthesizer,
		store:       cfg.VectorStore,
		services:    cfg.Services,
		filter: driven.SearchFilter{
			PathPrefix:  cfg.CorpusPrefix,
			PathExclude: cfg.TrashExclude,
		},
		logger: logger,
	}
}

// Route handles a unified query: search or answer, decided by intent.
func (r *QueryRouter) Route(ctx context.Context, query string) (*domain.RoutedResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if !r.services.ModelsReady() {
		return nil, domain.ErrModelsNotReady
	}

	intent := r.classifier.Classify(ctx, query)

	searchQuery := intent.RefinedQuery
	if strings.TrimSpace(searchQuery) == "" {
		searchQuery = query
	}

	embedding := r.services.EmbeddingService()
	if embedding == nil {
		return nil, domain.ErrModelsNotReady
	}

	vector, err := embedding.EmbedQuery(ctx, searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := r.store.Search(ctx, vector, intent.Limit, r.filter)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	r.logger.Info("query routed",
		"mode", intent.Mode,
		"count_hint", intent.CountHint,
		"limit", intent.Limit,
		"confidence", intent.Confidence,
		"candidates", len(docs),
	)

	if intent.Mode == domain.QueryModeAnswer {
		return r.routeAnswer(ctx, query, intent, docs)
	}
	return r.routeSearch(query, intent, docs), nil
}

// routeAnswer synthesises a cited answer from the candidates.
// With zero candidates a canned answer is returned without invoking the
// generation model - a slow call that cannot possibly help.
func (r *QueryRouter) routeAnswer(ctx context.Context, query string, intent domain.Intent, docs []domain.Candidate) (*domain.RoutedResponse, error) {
	if len(docs) == 0 {
		return &domain.RoutedResponse{
			Mode:   domain.QueryModeAnswer,
			Query:  query,
			Intent: intent,
			Answer: &domain.Answer{
				Text:       NoDocumentsAnswer,
				Sources:    []domain.SourceRef{},
				Confidence: domain.ConfidenceLow,
			},
		}, nil
	}

	answer, err := r.synthesizer.Synthesize(ctx, query, docs)
	if err != nil {
		return nil, err
	}

	return &domain.RoutedResponse{
		Mode:           domain.QueryModeAnswer,
		Query:          query,
		Intent:         intent,
		Answer:         answer,
		CandidateCount: len(docs),
	}, nil
}

// routeSearch returns up to limit candidates with preview content only
func (r *QueryRouter) routeSearch(query string, intent domain.Intent, docs []domain.Candidate) *domain.RoutedResponse {
	if len(docs) > intent.Limit {
		docs = docs[:intent.Limit]
	}

	files := make([]domain.FileMatch, 0, len(docs))
	for _, doc := range docs {
		files = append(files, doc.Preview())
	}

	return &domain.RoutedResponse{
		Mode:       domain.QueryModeSearch,
		Query:      query,
		Intent:     intent,
		Files:      files,
		TotalFound: len(files),
	}
}
