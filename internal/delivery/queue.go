// Package delivery provides the ordered queue that carries classified events
// from the watching goroutine to the consumer.
package delivery

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/foldermon/foldermon/internal/errors"
)

// Overflow selects what a bounded queue does when it is full.
type Overflow int

const (
	// DropNewest rejects the value being sent.
	DropNewest Overflow = iota
	// DropOldest discards the oldest queued value to make room.
	DropOldest
	// Block waits until the consumer drains or the queue closes.
	Block
)

// String returns the configuration name of the policy.
func (o Overflow) String() string {
	switch o {
	case DropNewest:
		return "drop-newest"
	case DropOldest:
		return "drop-oldest"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// ParseOverflow converts a configuration string to an Overflow policy.
func ParseOverflow(s string) (Overflow, error) {
	switch s {
	case "", "drop-newest":
		return DropNewest, nil
	case "drop-oldest":
		return DropOldest, nil
	case "block":
		return Block, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = &errors.Error{Code: errors.CodeClosed, Message: "delivery queue closed"}
	// ErrFull is returned by Send when a drop-newest queue is at capacity.
	ErrFull = &errors.Error{Code: errors.CodeUnavailable, Message: "delivery queue full"}
)

// Options configures a Queue. The zero value is an unbounded queue.
type Options struct {
	// Capacity bounds the queue when positive.
	Capacity int
	// Overflow applies only when Capacity is positive.
	Overflow Overflow
}

// Queue is an ordered FIFO safe for one producer and one consumer.
// Values are observed in the order they were sent, across any number of drains.
type Queue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	items    []T
	closed   bool
	capacity int
	overflow Overflow

	ready   chan struct{}
	dropped atomic.Uint64
}

// New creates a queue with the given options.
func New[T any](opts Options) *Queue[T] {
	q := &Queue[T]{
		capacity: opts.Capacity,
		overflow: opts.Overflow,
		ready:    make(chan struct{}, 1),
	}
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Send enqueues v. It fails with ErrClosed after Close, and with ErrFull
// when a drop-newest queue is at capacity. Failed values are not retained.
func (q *Queue[T]) Send(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	if q.capacity > 0 {
		for len(q.items) >= q.capacity {
			switch q.overflow {
			case DropOldest:
				var zero T
				q.items[0] = zero
				q.items = q.items[1:]
				q.dropped.Add(1)
			case Block:
				q.notFull.Wait()
				if q.closed {
					return ErrClosed
				}
			default:
				q.dropped.Add(1)
				return ErrFull
			}
		}
	}

	q.items = append(q.items, v)
	q.signal()
	return nil
}

// signal marks the queue as ready without blocking. Callers hold mu.
func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything currently queued, oldest first.
// It never blocks; an empty queue returns nil.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	items := q.items
	q.items = nil
	q.notFull.Broadcast()
	return items
}

// TryRecv removes and returns the oldest value, if any, without blocking.
func (q *Queue[T]) TryRecv() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.notFull.Broadcast()

	if len(q.items) > 0 {
		q.signal()
	}
	return v, true
}

// Ready delivers a signal after values are sent. It is level-triggered
// per send, so a consumer should Drain fully after each receive.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many values were discarded by the overflow policy.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further sends. Values already queued can still be drained.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.signal()
}
