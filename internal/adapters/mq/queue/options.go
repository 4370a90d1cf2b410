package queue

type options struct {
	capacity int
}

// Option applies a configuration option to NewInMemoryQueue.
type Option func(*options)

// WithCapacity sets the maximum number of queued items.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}
