package driving

import (
	"context"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

// JobService accepts asynchronous query jobs and exposes their status
type JobService interface {
	// Submit enqueues a query job. The job ID must be unique; submission
	// returns as soon as the job is durably queued.
	Submit(ctx context.Context, jobID, query string) (*domain.Job, error)

	// Status returns the current job record, or domain.ErrNotFound if the
	// job is unknown or its record has expired
	Status(ctx context.Context, jobID string) (*domain.Job, error)
}
