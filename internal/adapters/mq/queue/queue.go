// Package queue carries match events from ranking calls to the
// notification dispatchers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/pkg/logger"
	"github.com/okian/techmatch/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Event is the payload flowing through the queue.
type Event = model.MatchEvent

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event without blocking. It returns false when the
	// event was dropped because the queue is full or closed.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns the channel consumers range over. It is closed once
	// the queue is closed and drained.
	Dequeue() <-chan Event

	Len() int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int
	log      logger.Logger

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	metrics.UpdateQueue(0, q.capacity)
	return q
}

// Enqueue adds an event to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(ctx, e, "closed")
		return false
	}

	select {
	case q.events <- e:
		metrics.RecordEventEmitted()
		metrics.UpdateQueue(len(q.events), q.capacity)
		return true
	default:
		q.drop(ctx, e, "backpressure")
		return false
	}
}

func (q *InMemoryQueue) drop(ctx context.Context, e Event, reason string) {
	metrics.RecordEventDropped(reason)
	metrics.RecordErrorByComponent("queue", reason)
	q.log.Warn(ctx, "match event dropped",
		logger.String("reason", reason),
		logger.String("event_id", e.ID),
		logger.String("subject_id", e.SubjectID),
		logger.String("counterpart_id", e.CounterpartID),
	)
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Event {
	return q.events
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len() int {
	n := len(q.events)
	metrics.UpdateQueue(n, q.capacity)
	return n
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting events. Buffered events stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
