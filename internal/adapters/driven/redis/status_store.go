package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Key prefix for job status records
const resultKeyPrefix = "ai:results:"

// Verify interface compliance
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore implements the TTL-backed job status store using Redis.
// Records are overwritten by job ID, which keeps reprocessing idempotent,
// and expire after the retention window regardless of terminal state.
type StatusStore struct {
	client *redis.Client
}

// NewStatusStore creates a Redis-backed StatusStore
func NewStatusStore(client *redis.Client) *StatusStore {
	return &StatusStore{client: client}
}

// Set writes the job's status record with the given TTL
func (s *StatusStore) Set(ctx context.Context, job *domain.Job, ttl time.Duration) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("%w: job with ID is required", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}

	if err := s.client.Set(ctx, resultKeyPrefix+job.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job status: %w", err)
	}

	return nil
}

// Get returns the status record for a job ID
func (s *StatusStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, resultKeyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job status: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}

	return &job, nil
}

// Ping checks if the store backend is healthy
func (s *StatusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
