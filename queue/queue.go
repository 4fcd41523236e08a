// Package queue provides an unbounded multi-producer, single-consumer FIFO.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO. Push never blocks and is safe from any number
// of goroutines; Pop is meant for a single consumer.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	// signal holds at most one wake-up for the consumer.
	signal chan struct{}
}

// New creates an empty, open queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push appends v. It returns false only when the queue has been closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.wake()
	return true
}

// Pop removes and returns the oldest item, blocking until one is available.
// It returns false when the queue is closed and empty, or when ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return v, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, false
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further pushes and returns the items still pending, oldest
// first. Calling Close again returns nil.
func (q *Queue[T]) Close() []T {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	rest := q.items
	q.items = nil
	q.mu.Unlock()

	q.wake()
	return rest
}

func (q *Queue[T]) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
