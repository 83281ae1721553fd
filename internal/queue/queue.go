// Package queue provides a FIFO work queue with a concurrency ceiling.
//
// A Queue hands items to a worker function together with a done continuation.
// At most Concurrency items are between dispatch and done at any instant.
// Items are dispatched in enqueue order; they may complete in any order.
//
// The worker must call done exactly once per item. Calling it twice panics
// with ErrDoneCalledTwice. A worker that never calls done holds its slot
// forever; the queue does not time out or reclaim slots.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultConcurrency is the ceiling used when none is configured.
const DefaultConcurrency = 10

// ErrDoneCalledTwice is the panic value raised when a worker calls done more
// than once for the same item.
var ErrDoneCalledTwice = errors.New("queue: done called more than once")

// Worker processes one item and calls done when finished.
type Worker[T any] func(item T, done func())

// Option configures a Queue.
type Option func(*config)

type config struct {
	concurrency int
	logger      *slog.Logger
}

// WithConcurrency sets the maximum number of items in flight. Values below
// one are treated as one.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Queue is safe for concurrent use.
type Queue[T any] struct {
	worker      Worker[T]
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	pending []T
	running int
	// dirty is set when work arrives and cleared when the drain is reported,
	// so each drain emits exactly one empty event.
	dirty     bool
	listeners []func()
	drained   chan struct{}
}

// New returns an idle queue that passes items to worker.
func New[T any](worker Worker[T], opts ...Option) *Queue[T] {
	cfg := config{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return &Queue[T]{
		worker:      worker,
		concurrency: cfg.concurrency,
		logger:      cfg.logger,
		drained:     make(chan struct{}),
	}
}

// Concurrency reports the configured ceiling.
func (q *Queue[T]) Concurrency() int { return q.concurrency }

// Add enqueues item and admits a slot for it if one is free.
func (q *Queue[T]) Add(item T) {
	q.Enqueue(item, true)
}

// Enqueue appends item to the pending list. With autostart, a free slot is
// admitted immediately; without it the item waits for Start or for a slot
// freed by another item.
func (q *Queue[T]) Enqueue(item T, autostart bool) {
	q.mu.Lock()
	q.pending = append(q.pending, item)
	q.dirty = true
	admit := autostart && q.running < q.concurrency
	if admit {
		q.running++
	}
	q.mu.Unlock()

	if admit {
		go q.dispatch()
	}
}

// Start admits slots until the ceiling is reached. Slots that find nothing
// to do retire at once.
func (q *Queue[T]) Start() {
	q.mu.Lock()
	n := q.concurrency - q.running
	if n < 0 {
		n = 0
	}
	q.running += n
	q.mu.Unlock()

	q.logger.Debug("queue started", "slots", n)
	for i := 0; i < n; i++ {
		go q.dispatch()
	}
}

// dispatch runs one slot: it pops the next item and invokes the worker, or
// retires the slot when nothing is pending.
func (q *Queue[T]) dispatch() {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.retireLocked()
		return
	}
	item := q.pending[0]
	var zero T
	q.pending[0] = zero
	q.pending = q.pending[1:]
	q.mu.Unlock()

	var called atomic.Bool
	q.worker(item, func() {
		if !called.CompareAndSwap(false, true) {
			panic(ErrDoneCalledTwice)
		}
		// Resume on a fresh goroutine so the next item never runs on
		// the stack of the one that just finished.
		go q.dispatch()
	})
}

// retireLocked releases a slot and reports a drain. It unlocks q.mu.
func (q *Queue[T]) retireLocked() {
	q.running--
	if q.running > 0 || !q.dirty {
		q.mu.Unlock()
		return
	}
	q.dirty = false
	listeners := append([]func(){}, q.listeners...)
	close(q.drained)
	q.drained = make(chan struct{})
	q.mu.Unlock()

	q.logger.Debug("queue drained")
	for _, fn := range listeners {
		fn()
	}
}

// OnEmpty registers fn to run each time the queue drains: every admitted
// slot has retired and nothing is pending. Listeners run in registration
// order on the goroutine of the last retiring slot.
func (q *Queue[T]) OnEmpty(fn func()) {
	q.mu.Lock()
	q.listeners = append(q.listeners, fn)
	q.mu.Unlock()
}

// Wait blocks until the queue drains or ctx is done. It returns immediately
// when nothing is running or admitted and nothing has been enqueued since
// the last drain.
func (q *Queue[T]) Wait(ctx context.Context) error {
	q.mu.Lock()
	if q.running == 0 && !q.dirty {
		q.mu.Unlock()
		return nil
	}
	ch := q.drained
	q.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports the number of admitted slots.
func (q *Queue[T]) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Pending reports the number of items waiting for a slot.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
