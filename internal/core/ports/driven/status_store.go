package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

// StatusStore persists job status records with a retention TTL.
// Writes overwrite by job ID, which makes reprocessing after a crash
// idempotent; records expire after the TTL regardless of terminal state.
type StatusStore interface {
	// Set writes the job's current status record with the given TTL
	Set(ctx context.Context, job *domain.Job, ttl time.Duration) error

	// Get returns the status record for a job ID, or domain.ErrNotFound
	// if it never existed or has expired
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error
}
