package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// MockJobQueue is an in-memory queue with the same at-least-once contract
// as the stream adapter: dequeued entries stay pending until acknowledged.
type MockJobQueue struct {
	mu       sync.Mutex
	entries  []driven.JobDelivery
	pending  map[string]driven.JobDelivery
	nextID   int
	FailPing bool

	// Acked records delivery IDs in acknowledgment order
	Acked []string
}

var _ driven.JobQueue = (*MockJobQueue)(nil)

func NewMockJobQueue() *MockJobQueue {
	return &MockJobQueue{pending: make(map[string]driven.JobDelivery)}
}

func (q *MockJobQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.entries = append(q.entries, driven.JobDelivery{
		DeliveryID: fmt.Sprintf("%d-0", q.nextID),
		JobID:      job.ID,
		Query:      job.Query,
	})
	return nil
}

// Push enqueues a raw delivery, bypassing job validation. Tests use it to
// model malformed stream entries.
func (q *MockJobQueue) Push(delivery driven.JobDelivery) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	if delivery.DeliveryID == "" {
		delivery.DeliveryID = fmt.Sprintf("%d-0", q.nextID)
	}
	q.entries = append(q.entries, delivery)
}

func (q *MockJobQueue) Dequeue(ctx context.Context, blockSeconds int) (*driven.JobDelivery, error) {
	q.mu.Lock()
	if len(q.entries) > 0 {
		d := q.entries[0]
		q.entries = q.entries[1:]
		q.pending[d.DeliveryID] = d
		q.mu.Unlock()
		return &d, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, nil
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (q *MockJobQueue) Ack(ctx context.Context, deliveryID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[deliveryID]; !ok {
		return fmt.Errorf("unknown delivery %s", deliveryID)
	}
	delete(q.pending, deliveryID)
	q.Acked = append(q.Acked, deliveryID)
	return nil
}

// Redeliver moves all pending deliveries back onto the queue, as the
// stream adapter does when it claims abandoned entries.
func (q *MockJobQueue) Redeliver() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, d := range q.pending {
		q.entries = append(q.entries, d)
		delete(q.pending, id)
	}
}

// PendingCount returns the number of unacknowledged deliveries
func (q *MockJobQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// AckedCount returns the number of acknowledged deliveries
func (q *MockJobQueue) AckedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Acked)
}

func (q *MockJobQueue) Ping(ctx context.Context) error {
	if q.FailPing {
		return fmt.Errorf("mock queue unreachable")
	}
	return nil
}

func (q *MockJobQueue) Close() error { return nil }
