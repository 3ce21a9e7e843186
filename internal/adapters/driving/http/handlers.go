package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid json body", domain.ErrInvalidInput))
		return
	}

	resp, err := s.cfg.Queries.Route(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type submitJobRequest struct {
	JobID string `json:"job_id"`
	Query string `json:"query"`
}

type submitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid json body", domain.ErrInvalidInput))
		return
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	job, err := s.cfg.Jobs.Submit(r.Context(), req.JobID, req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitJobResponse{
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := s.cfg.Jobs.Status(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type indexDocumentRequest struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var req indexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid json body", domain.ErrInvalidInput))
		return
	}

	if err := s.cfg.Indexing.IndexDocument(r.Context(), req.FileID, req.Content, req.MimeType, req.FilePath); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file_id": req.FileID, "status": "indexed"})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")
	filePath := r.URL.Query().Get("file_path")

	deleted, err := s.cfg.Indexing.Remove(r.Context(), fileID, filePath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.cfg.Indexing.ListIndexed(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"file_ids": ids, "count": len(ids)})
}

type healthResponse struct {
	Status      string            `json:"status"`
	ModelsReady bool              `json:"models_ready"`
	Checks      map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if s.cfg.Queue != nil {
		if err := s.cfg.Queue.Ping(ctx); err != nil {
			checks["queue"] = err.Error()
			healthy = false
		} else {
			checks["queue"] = "ok"
		}
	}

	modelsReady := s.cfg.Runtime != nil && s.cfg.Runtime.ModelsReady()

	resp := healthResponse{Status: "ok", ModelsReady: modelsReady, Checks: checks}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type statusResponse struct {
	ModelsReady    bool   `json:"models_ready"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
	IndexedFiles   int    `json:"indexed_files"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{}

	if s.cfg.Runtime != nil {
		resp.ModelsReady = s.cfg.Runtime.ModelsReady()
		if emb := s.cfg.Runtime.EmbeddingService(); emb != nil {
			resp.EmbeddingModel = emb.Model()
		}
		if llm := s.cfg.Runtime.LLMService(); llm != nil {
			resp.LLMModel = llm.Model()
		}
	}
	if s.cfg.Store != nil {
		if n, err := s.cfg.Store.Count(r.Context()); err == nil {
			resp.IndexedFiles = n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
