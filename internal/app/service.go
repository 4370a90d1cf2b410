// Package service orchestrates one analysis: optional augmentation, then
// comparison, then composition. It owns the augmentation worker pool.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pacer/internal/adapters/augment"
	jobqueue "github.com/okian/pacer/internal/adapters/mq/queue"
	workerpool "github.com/okian/pacer/internal/adapters/mq/worker"
	"github.com/okian/pacer/internal/domain/comparison"
	"github.com/okian/pacer/internal/domain/compose"
	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/model"
	"github.com/okian/pacer/pkg/logger"
	"github.com/okian/pacer/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount  = 4
	defaultQueueSize    = 64
	defaultAwaitTimeout = 35 * time.Second
)

// Augmenter is the remote augmentation adapter as seen by the service.
type Augmenter interface {
	Configured() bool
	Augment(ctx context.Context, r augment.Request) augment.Outcome
	Describe(ctx context.Context, r augment.Request) (string, error)
}

// Service implements the API dependencies for the analysis pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	table      *leads.Table
	engine     *comparison.Engine
	augmenter  Augmenter
	jobQueue   *jobqueue.InMemoryQueue[*workerpool.Job]
	workerPool *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	awaitTimeout time.Duration

	// State
	started   bool
	poolStop  context.CancelFunc
	analyses  atomic.Int64
	augmented atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of augmentation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds augmentation jobs waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithAwaitTimeout bounds how long a submission waits for its augmentation
// job, queue time included.
func WithAwaitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.awaitTimeout = d
		}
	}
}

// WithLeadTable replaces the built-in lead table.
func WithLeadTable(t *leads.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithAugmenter installs the remote augmentation adapter.
func WithAugmenter(a Augmenter) Option {
	return func(s *Service) {
		if a != nil {
			s.augmenter = a
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  defaultWorkerCount,
		queueSize:    defaultQueueSize,
		awaitTimeout: defaultAwaitTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.table == nil {
		s.table = leads.Default()
	}
	s.engine = comparison.NewEngine(s.table)

	return s
}

// Start initializes and starts the augmentation pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.jobQueue = jobqueue.NewInMemoryQueue[*workerpool.Job](jobqueue.WithCapacity(s.queueSize))
	if s.augmentationEnabled() {
		poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.poolStop = cancel
		s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.augmenter)
		s.workerPool.Start(poolCtx)
	} else {
		s.logger.Info(ctx, "remote augmentation disabled: no credential configured, heuristic feedback only")
	}

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("sports", s.table.Len()),
		logger.Bool("augmentation", s.augmentationEnabled()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service. Pending augmentation jobs resolve
// as failed so no request is left waiting.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping analysis service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
		s.workerPool = nil
	} else if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.poolStop != nil {
		s.poolStop()
		s.poolStop = nil
	}

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

func (s *Service) augmentationEnabled() bool {
	return s.augmenter != nil && s.augmenter.Configured()
}

// Analyze runs the pipeline for one submission. Business-level failures
// degrade into a heuristic response; only an unstarted service errors.
func (s *Service) Analyze(ctx context.Context, sub model.Submission) (model.AnalysisResponse, error) {
	s.mu.RLock()
	started, q := s.started, s.jobQueue
	s.mu.RUnlock()
	if !started {
		return model.AnalysisResponse{}, ErrNotStarted
	}

	start := time.Now()
	id := logger.RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	if sub.Sport == "" {
		sub.Sport = DefaultSport
	}

	// A disconnecting client must not cut the remote call short.
	outcome := s.augment(context.WithoutCancel(ctx), q, id, sub)

	cmp := s.engine.Compare(sub.Sport, sub.ReportedMetric)
	resp := compose.Response(id, sub, cmp, outcome)
	_, source := compose.Feedback(cmp, outcome)

	s.analyses.Add(1)
	if source == compose.SourceAugmented {
		s.augmented.Add(1)
	}
	if !cmp.Known {
		metrics.RecordUnknownSport()
	}
	metrics.RecordFeedbackSource(source)
	metrics.RecordAnalysis(cmp.Lead.Sport, float64(time.Since(start).Milliseconds()))

	s.logger.Info(ctx, "analysis complete",
		logger.String("sport", sub.Sport),
		logger.Float64("metric", sub.ReportedMetric),
		logger.Float64("pctOfLead", cmp.PctOfLead),
		logger.String("tier", string(cmp.Tier)),
		logger.String("feedback_source", source),
		logger.String("augmentation", outcome.String()),
	)

	return resp, nil
}

// augment submits a job to the pool and waits for its single result.
func (s *Service) augment(ctx context.Context, q jobqueue.Queue[*workerpool.Job], id string, sub model.Submission) augment.Outcome {
	if sub.Frame == nil || !s.augmentationEnabled() {
		metrics.RecordAugmentOutcome(augment.KindSkipped.String())
		return augment.Skipped()
	}

	start := time.Now()
	outcome := s.awaitJob(ctx, q, workerpool.NewJob(id, augment.Request{
		Sport:    sub.Sport,
		Metric:   sub.ReportedMetric,
		Duration: sub.DurationSeconds,
		Frame:    sub.Frame,
	}))

	metrics.RecordAugmentOutcome(outcome.Kind().String())
	metrics.RecordAugmentLatency(float64(time.Since(start).Milliseconds()))
	return outcome
}

func (s *Service) awaitJob(ctx context.Context, q jobqueue.Queue[*workerpool.Job], job *workerpool.Job) augment.Outcome {
	if err := q.Enqueue(ctx, job); err != nil {
		s.logger.Warn(ctx, "augmentation job rejected", logger.Error(err))
		switch {
		case errors.Is(err, jobqueue.ErrQueueFull):
			return augment.Failed("backpressure")
		case errors.Is(err, jobqueue.ErrQueueClosed):
			return augment.Failed("shutting down")
		default:
			return augment.Failed(err.Error())
		}
	}

	timer := time.NewTimer(s.awaitTimeout)
	defer timer.Stop()

	select {
	case outcome := <-job.Done():
		return outcome
	case <-timer.C:
		// The worker's own resolution is discarded.
		job.Resolve(augment.Failed("timeout"))
		return augment.Failed("timeout")
	}
}

// Probe calls the augmentation service directly, reporting a missing
// credential as augment.ErrNotConfigured.
func (s *Service) Probe(ctx context.Context, r augment.Request) (string, error) {
	if !s.augmentationEnabled() {
		return "", augment.ErrNotConfigured
	}
	text, err := s.augmenter.Describe(context.WithoutCancel(ctx), r)
	if err != nil {
		metrics.RecordAugmentOutcome(augment.KindFailed.String())
		return "", err
	}
	metrics.RecordAugmentOutcome(augment.KindSucceeded.String())
	return text, nil
}

// Leads returns the lead table in table order.
func (s *Service) Leads() []leads.Record {
	return s.table.All()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"augmentation": s.augmentationEnabled(),
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"sports":       s.table.Len(),
		"analyses":     s.analyses.Load(),
		"augmented":    s.augmented.Load(),
	}

	if s.started {
		stats["queueLength"] = s.jobQueue.Len(context.Background())
	}
	if s.workerPool != nil {
		stats["jobsProcessed"] = s.workerPool.Processed()
	}

	return stats
}
