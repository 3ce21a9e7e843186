package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// JobStatus represents the current state of an asynchronous query job.
// Lifecycle: queued -> processing -> {completed | failed}. Both terminal
// states are final and are only removed by status-record expiry.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status allows no further transitions
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobRetention is how long a job's status record is kept after any write.
// Callers must poll within this window.
const JobRetention = 1 * time.Hour

// Job represents an asynchronous query job processed by the worker pool.
// The record is owned by the job pipeline and externally visible only
// through read-only status lookups keyed by ID.
type Job struct {
	// ID is the caller-supplied unique job identifier
	ID string `json:"job_id"`

	// Query is the natural-language query to route
	Query string `json:"query"`

	// Status is the current lifecycle state
	Status JobStatus `json:"status"`

	// Result holds the routed response once completed
	Result *RoutedResponse `json:"result,omitempty"`

	// Error holds the failure reason once failed
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a queued job for a query
func NewJob(id, query string) *Job {
	return &Job{
		ID:        id,
		Query:     query,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

// MarkProcessing transitions the job to processing state
func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
}

// MarkCompleted transitions the job to completed state with its result
func (j *Job) MarkCompleted(result *RoutedResponse) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Result = result
	j.Error = ""
	j.CompletedAt = &now
}

// MarkFailed transitions the job to failed state with the error text
func (j *Job) MarkFailed(reason string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.Result = nil
	j.Error = reason
	j.CompletedAt = &now
}
