package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driving"
)

// Worker processes query jobs from the durable job stream.
// It resolves each job through the query router and records the outcome
// in the status store before acknowledging the stream entry, so a crash
// mid-job leaves the entry unacknowledged for redelivery. Reprocessing is
// idempotent: status records are overwritten by job ID.
type Worker struct {
	queue  driven.JobQueue
	status driven.StatusStore
	router driving.QueryService
	logger *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	Queue          driven.JobQueue
	Status         driven.StatusStore
	Router         driving.QueryService
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent job processors
	DequeueTimeout int // Seconds to block on the stream before re-checking
}

// New creates a new job worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		queue:          cfg.Queue,
		status:         cfg.Status,
		router:         cfg.Router,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		delivery, err := w.queue.Dequeue(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue job", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if delivery == nil {
			// No job arrived within the block window
			continue
		}

		w.processJob(ctx, delivery, logger)
	}
}

// processJob resolves a single delivered job.
// The status record is written before any work (visibility for pollers)
// and again with the terminal state afterwards; the stream entry is
// acknowledged only once the terminal status write succeeded.
func (w *Worker) processJob(ctx context.Context, delivery *driven.JobDelivery, logger *slog.Logger) {
	logger = logger.With("job_id", delivery.JobID)

	if delivery.JobID == "" {
		// Malformed entry, drop it
		if err := w.queue.Ack(ctx, delivery.DeliveryID); err != nil {
			logger.Error("failed to ack malformed entry", "error", err)
		}
		return
	}

	logger.Info("processing job")
	startTime := time.Now()

	job := domain.NewJob(delivery.JobID, delivery.Query)
	job.MarkProcessing()
	if err := w.status.Set(ctx, job, domain.JobRetention); err != nil {
		logger.Error("failed to write processing status", "error", err)
		// Leave the entry unacknowledged so it is redelivered
		return
	}

	result, err := w.router.Route(ctx, delivery.Query)
	if err != nil {
		job.MarkFailed(err.Error())
		logger.Error("job failed", "duration", time.Since(startTime), "error", err)
	} else {
		job.MarkCompleted(result)
		logger.Info("job completed", "duration", time.Since(startTime), "mode", result.Mode)
	}

	if err := w.status.Set(ctx, job, domain.JobRetention); err != nil {
		logger.Error("failed to write terminal status", "error", err)
		// Without a recorded outcome the entry must stay pending; the
		// overwrite-by-ID semantics make the eventual retry safe.
		return
	}

	if err := w.queue.Ack(ctx, delivery.DeliveryID); err != nil {
		logger.Error("failed to ack job", "error", err)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.queue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
