package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driving"
)

// Ensure JobService implements the driving interface
var _ driving.JobService = (*JobService)(nil)

// JobService accepts query jobs onto the durable stream and exposes their
// status records. Processing happens in the worker pool.
type JobService struct {
	queue  driven.JobQueue
	status driven.StatusStore
	logger *slog.Logger
}

// NewJobService creates a JobService
func NewJobService(queue driven.JobQueue, status driven.StatusStore, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{queue: queue, status: status, logger: logger}
}

// Submit enqueues a query job. Bad input is rejected synchronously and
// never reaches the stream.
func (s *JobService) Submit(ctx context.Context, jobID, query string) (*domain.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	job := domain.NewJob(jobID, query)

	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	// Initial status record for pollers. Failure here is non-fatal: the job
	// is already durably queued and the worker overwrites the record anyway.
	if err := s.status.Set(ctx, job, domain.JobRetention); err != nil {
		s.logger.Warn("failed to store initial job status", "job_id", jobID, "error", err)
	}

	s.logger.Info("job queued", "job_id", jobID, "query_len", len(query))
	return job, nil
}

// Status returns the job's current status record
func (s *JobService) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", domain.ErrInvalidInput)
	}
	return s.status.Get(ctx, jobID)
}
