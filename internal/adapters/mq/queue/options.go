package queue

import "github.com/okian/techmatch/pkg/logger"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered events.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithLogger sets the logger used to report dropped events.
func WithLogger(l logger.Logger) Option {
	return func(q *InMemoryQueue) {
		if l != nil {
			q.log = l
		}
	}
}
