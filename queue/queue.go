// Package queue provides the bounded hand-off between the estimation pipeline
// and the output publisher.
package queue

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrQueueClosed is reported by Err once the queue has been shut down.
var ErrQueueClosed = errors.New("queue is shut down")

// ThreadsafeQueue is a bounded FIFO safe for any number of producers and
// consumers. Push never blocks: when the queue is full the incoming item is
// rejected (drop-newest) and counted, so items already accepted keep their order
// and are never evicted. Every accepted item is delivered exactly once.
type ThreadsafeQueue[T any] struct {
	name     string
	capacity int
	clock    clock.Clock

	mu       sync.Mutex
	items    []T
	shutdown bool
	done     chan struct{}
	// notify holds at most one pending wakeup for consumers.
	notify chan struct{}

	dropped atomic.Uint64
}

// Option configures a ThreadsafeQueue.
type Option[T any] func(q *ThreadsafeQueue[T])

// WithClock makes the queue measure pop timeouts with c.
func WithClock[T any](c clock.Clock) Option[T] {
	return func(q *ThreadsafeQueue[T]) {
		q.clock = c
	}
}

// NewThreadsafeQueue returns an empty queue holding at most capacity items.
// The capacity must be positive.
func NewThreadsafeQueue[T any](name string, capacity int, opts ...Option[T]) (*ThreadsafeQueue[T], error) {
	if capacity <= 0 {
		return nil, errors.Errorf("queue %q: capacity must be positive, got %d", name, capacity)
	}
	q := &ThreadsafeQueue[T]{
		name:     name,
		capacity: capacity,
		clock:    clock.New(),
		items:    make([]T, 0, capacity),
		done:     make(chan struct{}),
		notify:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Name returns the name the queue was created with.
func (q *ThreadsafeQueue[T]) Name() string {
	return q.name
}

// Push appends item without blocking. It returns false if the queue is full or
// shut down; in both cases the item is not enqueued.
func (q *ThreadsafeQueue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		return false
	}
	if len(q.items) >= q.capacity {
		q.dropped.Inc()
		return false
	}
	q.items = append(q.items, item)
	q.signalLocked()
	return true
}

// PopBlocking waits for the oldest item. It returns false when timeout elapses
// first or when the queue is shut down, even if items remain.
func (q *ThreadsafeQueue[T]) PopBlocking(timeout time.Duration) (T, bool) {
	var zero T
	timer := q.clock.Timer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if q.shutdown {
			q.mu.Unlock()
			return zero, false
		}
		if item, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return item, true
		}
		done := q.done
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-done:
			return zero, false
		case <-timer.C:
			return zero, false
		}
	}
}

func (q *ThreadsafeQueue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) > 0 {
		// pass the wakeup on to any other waiting consumer.
		q.signalLocked()
	}
	return item, true
}

func (q *ThreadsafeQueue[T]) signalLocked() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Shutdown wakes every blocked consumer with an empty result. After it, Push
// fails and PopBlocking returns immediately. Calling it again has no effect.
func (q *ThreadsafeQueue[T]) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return
	}
	q.shutdown = true
	close(q.done)
}

// IsShutdown reports whether Shutdown was called.
func (q *ThreadsafeQueue[T]) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shutdown
}

// Err returns ErrQueueClosed after shutdown and nil otherwise.
func (q *ThreadsafeQueue[T]) Err() error {
	if q.IsShutdown() {
		return errors.Wrapf(ErrQueueClosed, "queue %q", q.name)
	}
	return nil
}

// Len returns the number of items waiting.
func (q *ThreadsafeQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the maximum number of waiting items.
func (q *ThreadsafeQueue[T]) Capacity() int {
	return q.capacity
}

// Dropped returns how many pushes were rejected because the queue was full.
func (q *ThreadsafeQueue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
