package worker_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/pacer/internal/adapters/augment"
	"github.com/okian/pacer/internal/adapters/mq/queue"
	"github.com/okian/pacer/internal/adapters/mq/worker"
	logging "github.com/okian/pacer/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockAugmenter struct {
	mu       sync.Mutex
	calls    []augment.Request
	outcome  augment.Outcome
	block    chan struct{}
	panicMsg string
}

func (m *mockAugmenter) Augment(ctx context.Context, r augment.Request) augment.Outcome {
	m.mu.Lock()
	m.calls = append(m.calls, r)
	block, panicMsg, outcome := m.block, m.panicMsg, m.outcome
	m.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return augment.Failed("canceled")
		}
	}
	return outcome
}

func (m *mockAugmenter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func await(job *worker.Job) (augment.Outcome, bool) {
	select {
	case o := <-job.Done():
		return o, true
	case <-time.After(2 * time.Second):
		return augment.Outcome{}, false
	}
}

func TestJob(t *testing.T) {
	convey.Convey("Given a new job", t, func() {
		job := worker.NewJob("job-1", augment.Request{Sport: "javelin"})

		convey.Convey("When it is resolved twice", func() {
			first := job.Resolve(augment.Succeeded("first"))
			second := job.Resolve(augment.Failed("second"))

			convey.Convey("Then only the first outcome is delivered", func() {
				convey.So(first, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldBeFalse)
				o := <-job.Done()
				text, _ := o.Text()
				convey.So(text, convey.ShouldEqual, "first")
				_, open := <-job.Done()
				convey.So(open, convey.ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := queue.NewInMemoryQueue[*worker.Job](queue.WithCapacity(4))
		aug := &mockAugmenter{outcome: augment.Succeeded("keep your elbow high")}
		w := worker.NewInMemoryWorker(q, aug, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is enqueued", func() {
			job := worker.NewJob("job-1", augment.Request{Sport: "javelin", Metric: 85})
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeNil)

			convey.Convey("Then its outcome is resolved by the worker", func() {
				o, ok := await(job)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(o.Kind(), convey.ShouldEqual, augment.KindSucceeded)
				convey.So(aug.callCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the augmenter panics", func() {
			aug.panicMsg = "boom"
			job := worker.NewJob("job-panic", augment.Request{})
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeNil)

			convey.Convey("Then the job still resolves as failed", func() {
				o, ok := await(job)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(o.Kind(), convey.ShouldEqual, augment.KindFailed)
				convey.So(o.Reason(), convey.ShouldEqual, "internal error")
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then it stops cleanly and tolerates a second call", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of two workers", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := queue.NewInMemoryQueue[*worker.Job](queue.WithCapacity(8))
		aug := &mockAugmenter{outcome: augment.Succeeded("ok")}
		pool := worker.NewPool(2, q, aug)
		ctx := context.Background()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 2)

		convey.Convey("When several jobs are submitted", func() {
			jobs := make([]*worker.Job, 5)
			for i := range jobs {
				jobs[i] = worker.NewJob("job", augment.Request{})
				convey.So(q.Enqueue(ctx, jobs[i]), convey.ShouldBeNil)
			}

			convey.Convey("Then every job resolves exactly once", func() {
				for _, job := range jobs {
					_, ok := await(job)
					convey.So(ok, convey.ShouldBeTrue)
				}
				convey.So(pool.Processed(), convey.ShouldEqual, 5)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the pool shuts down with jobs still queued", func() {
			aug.mu.Lock()
			aug.block = make(chan struct{})
			aug.mu.Unlock()

			busy := []*worker.Job{worker.NewJob("busy-0", augment.Request{}), worker.NewJob("busy-1", augment.Request{})}
			for _, job := range busy {
				convey.So(q.Enqueue(ctx, job), convey.ShouldBeNil)
			}
			for aug.callCount() < 2 {
				time.Sleep(time.Millisecond)
			}
			pending := worker.NewJob("pending", augment.Request{})
			convey.So(q.Enqueue(ctx, pending), convey.ShouldBeNil)

			done := make(chan error, 1)
			go func() { done <- pool.Shutdown(ctx) }()
			close(aug.block)

			convey.Convey("Then the pending job is failed instead of abandoned", func() {
				convey.So(<-done, convey.ShouldBeNil)
				o, ok := await(pending)
				convey.So(ok, convey.ShouldBeTrue)
				if o.Kind() == augment.KindFailed {
					convey.So(o.Reason(), convey.ShouldEqual, "shutting down")
				}
				for _, job := range busy {
					_, ok := await(job)
					convey.So(ok, convey.ShouldBeTrue)
				}
				convey.So(q.Enqueue(ctx, worker.NewJob("late", augment.Request{})), convey.ShouldEqual, queue.ErrQueueClosed)
			})
		})
	})
}
