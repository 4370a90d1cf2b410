// Package worker runs augmentation jobs from the queue on a bounded pool.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/pacer/internal/adapters/augment"
	"github.com/okian/pacer/pkg/logger"
	"github.com/okian/pacer/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 4
	poolShutdownTimeout = 30 * time.Second
	shutdownReason      = "shutting down"
)

// Augmenter performs one augmentation call.
type Augmenter interface {
	Augment(ctx context.Context, r augment.Request) augment.Outcome
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *Job
}

// Worker processes jobs using the provided Augmenter.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	augmenter Augmenter
	name      string
	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, augmenter Augmenter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		augmenter: augmenter,
		name:      "worker",
		processed: &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job and always resolves it, even if the augmenter panics.
func (w *InMemoryWorker) process(ctx context.Context, job *Job) {
	metrics.WorkerBusy(1)
	defer metrics.WorkerBusy(-1)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "augmentation panicked",
				logger.String("job_id", job.ID),
				logger.Any("panic", r),
			)
			job.Resolve(augment.Failed("internal error"))
		}
	}()

	outcome := w.augmenter.Augment(ctx, job.Request)
	metrics.RecordJobLatency(float64(time.Since(job.Enqueued).Milliseconds()))
	w.processed.Add(1)

	if !job.Resolve(outcome) {
		w.logger.Debug(ctx, "job already resolved", logger.String("job_id", job.ID))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count falls back to the
// default size.
func NewPool(workerCount int, queue Queue, augmenter Augmenter) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(queue, augmenter, WithName("worker-"+strconv.Itoa(i)))
		w.processed = &pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs workers have completed.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Shutdown closes the queue, stops every worker and fails any job still
// waiting so no caller blocks on an abandoned result.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	if n := p.drain(ctx); n > 0 {
		p.logger.Info(ctx, "failed pending augmentation jobs on shutdown", logger.Int("count", n))
	}
	metrics.UpdateWorkerCount(0)
	return nil
}

func (p *Pool) drain(ctx context.Context) int {
	jobs := p.queue.Dequeue(ctx)
	n := 0
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return n
			}
			if job.Resolve(augment.Failed(shutdownReason)) {
				n++
			}
		default:
			return n
		}
	}
}
