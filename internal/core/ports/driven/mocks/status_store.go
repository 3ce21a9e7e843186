package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// StatusWrite records one Set call in order
type StatusWrite struct {
	JobID  string
	Status domain.JobStatus
	TTL    time.Duration
}

// MockStatusStore keeps status records in memory and records every write
// so tests can assert on write ordering.
type MockStatusStore struct {
	mu      sync.Mutex
	records map[string]domain.Job

	// FailSetFor makes Set fail for the given statuses
	FailSetFor map[domain.JobStatus]bool

	Writes []StatusWrite
}

var _ driven.StatusStore = (*MockStatusStore)(nil)

func NewMockStatusStore() *MockStatusStore {
	return &MockStatusStore{
		records:    make(map[string]domain.Job),
		FailSetFor: make(map[domain.JobStatus]bool),
	}
}

func (s *MockStatusStore) Set(ctx context.Context, job *domain.Job, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSetFor[job.Status] {
		return fmt.Errorf("mock status write failure for %s", job.Status)
	}
	s.records[job.ID] = *job
	s.Writes = append(s.Writes, StatusWrite{JobID: job.ID, Status: job.Status, TTL: ttl})
	return nil
}

func (s *MockStatusStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.records[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

func (s *MockStatusStore) Ping(ctx context.Context) error { return nil }
