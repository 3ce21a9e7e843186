package driven

import (
	"context"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

// JobDelivery is a job received from the stream together with the entry ID
// needed to acknowledge it. An unacknowledged delivery is eventually
// redelivered to an active consumer in the group.
type JobDelivery struct {
	// DeliveryID is the stream entry ID used for acknowledgment
	DeliveryID string

	// JobID is the caller-supplied job identifier
	JobID string

	// Query is the natural-language query to route
	Query string
}

// JobQueue is the durable, consumer-group-based job stream.
// Each unacknowledged entry is delivered to exactly one active consumer;
// processing is at-least-once and must therefore be idempotent.
type JobQueue interface {
	// Enqueue appends a job submission to the stream. Acceptance is
	// synchronous and does not wait for processing.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Dequeue reads one unread entry for this consumer, blocking up to
	// blockSeconds. Returns nil, nil when no entry arrived in time.
	Dequeue(ctx context.Context, blockSeconds int) (*JobDelivery, error)

	// Ack acknowledges a delivery after its final status has been recorded
	Ack(ctx context.Context, deliveryID string) error

	// Ping checks if the stream backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}
