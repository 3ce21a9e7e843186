package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

const (
	// Stream and consumer group names
	jobStream = "ai:jobs"
	jobGroup  = "ai-workers"

	// Default consumer name prefix
	consumerPrefix = "worker-"

	// Claim timeout - how long before a pending delivery is considered
	// abandoned by its consumer and eligible for reclaiming
	claimTimeout = 5 * time.Minute
)

// Verify interface compliance
var _ driven.JobQueue = (*JobQueue)(nil)

// JobQueue implements the durable job stream using Redis Streams.
// Consumer groups provide per-entry acknowledgment: an entry stays pending
// until acked and is eventually redelivered if its consumer dies, which
// gives at-least-once delivery to exactly one active consumer.
type JobQueue struct {
	client       *redis.Client
	consumerName string
}

// NewJobQueue creates a Redis-backed job queue.
// The consumerName should be unique per worker process (e.g. hostname + PID).
func NewJobQueue(client *redis.Client, consumerName string) (*JobQueue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	q := &JobQueue{
		client:       client,
		consumerName: consumerName,
	}

	// Create consumer group if it doesn't exist
	ctx := context.Background()
	err := q.client.XGroupCreateMkStream(ctx, jobStream, jobGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

// Enqueue appends a job submission to the stream.
func (q *JobQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("%w: job with ID is required", domain.ErrInvalidInput)
	}

	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: jobStream,
		Values: map[string]interface{}{
			"job_id":     job.ID,
			"query":      job.Query,
			"created_at": job.CreatedAt.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// Dequeue reads one unread entry for this consumer, blocking up to
// blockSeconds. Abandoned pending entries of dead consumers are claimed
// first so they are not lost after a crash.
func (q *JobQueue) Dequeue(ctx context.Context, blockSeconds int) (*driven.JobDelivery, error) {
	if delivery, err := q.claimAbandoned(ctx); err == nil && delivery != nil {
		return delivery, nil
	}

	blockDuration := time.Duration(blockSeconds) * time.Second

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    jobGroup,
		Consumer: q.consumerName,
		Streams:  []string{jobStream, ">"},
		Count:    1,
		Block:    blockDuration,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No entries arrived within the block window
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return deliveryFromMessage(streams[0].Messages[0]), nil
}

// Ack acknowledges a processed delivery and trims it from the stream.
func (q *JobQueue) Ack(ctx context.Context, deliveryID string) error {
	pipe := q.client.Pipeline()
	pipe.XAck(ctx, jobStream, jobGroup, deliveryID)
	pipe.XDel(ctx, jobStream, deliveryID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack delivery: %w", err)
	}
	return nil
}

// Ping checks if the stream backend is healthy.
func (q *JobQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources.
func (q *JobQueue) Close() error {
	// Redis client is shared, don't close it here
	return nil
}

// claimAbandoned tries to claim an entry that was delivered to another
// consumer but sat pending past the claim timeout.
func (q *JobQueue) claimAbandoned(ctx context.Context) (*driven.JobDelivery, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: jobStream,
		Group:  jobGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   jobStream,
			Group:    jobGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		return deliveryFromMessage(claimed[0]), nil
	}

	return nil, nil
}

func deliveryFromMessage(msg redis.XMessage) *driven.JobDelivery {
	delivery := &driven.JobDelivery{DeliveryID: msg.ID}
	if jobID, ok := msg.Values["job_id"].(string); ok {
		delivery.JobID = jobID
	}
	if query, ok := msg.Values["query"].(string); ok {
		delivery.Query = query
	}
	return delivery
}

func isGroupExistsError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
