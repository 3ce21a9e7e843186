package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driving"
	"github.com/custodia-labs/qanda-core/internal/runtime"
)

// Config wires the server to the application services.
type Config struct {
	Addr           string
	InternalSecret string

	Queries  driving.QueryService
	Jobs     driving.JobService
	Indexing driving.IndexingService

	Runtime *runtime.Services
	Store   driven.VectorStore
	Queue   driven.JobQueue

	Logger *slog.Logger
}

// Server exposes the query, job and indexing services over HTTP.
type Server struct {
	httpServer *http.Server
	cfg        Config
	logger     *slog.Logger
}

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}

	mux := http.NewServeMux()
	s.routes(mux)

	handler := s.withLogging(s.withInternalSecret(mux))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("POST /api/v1/query", s.handleQuery)

	mux.HandleFunc("POST /api/v1/jobs", s.handleSubmitJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleJobStatus)

	mux.HandleFunc("POST /api/v1/documents", s.handleIndexDocument)
	mux.HandleFunc("DELETE /api/v1/documents", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/v1/documents", s.handleListDocuments)
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrModelsNotReady), errors.Is(err, domain.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
