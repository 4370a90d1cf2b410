package worker

import (
	"sync"
	"time"

	"github.com/okian/pacer/internal/adapters/augment"
)

// Job is one augmentation request waiting for a worker. Its result resolves
// exactly once, whether a worker ran it or the pool shut down first.
type Job struct {
	ID       string
	Request  augment.Request
	Enqueued time.Time

	once   sync.Once
	result chan augment.Outcome
}

// NewJob creates a job stamped with the current time.
func NewJob(id string, req augment.Request) *Job {
	return &Job{
		ID:       id,
		Request:  req,
		Enqueued: time.Now(),
		result:   make(chan augment.Outcome, 1),
	}
}

// Resolve delivers the outcome. Only the first call has an effect; it
// reports whether this call won.
func (j *Job) Resolve(o augment.Outcome) bool {
	won := false
	j.once.Do(func() {
		j.result <- o
		close(j.result)
		won = true
	})
	return won
}

// Done yields the single outcome and is then closed.
func (j *Job) Done() <-chan augment.Outcome { return j.result }
