// Package queue holds the bounded in-memory queue of on-demand snapshot
// refresh requests. Requests arriving while one is already pending are
// coalesced: a pipeline run refreshes everything, so queueing a second
// identical request buys nothing.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/huddle/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 16

// Request is one refresh demand.
type Request struct {
	Reason      string
	RequestedAt time.Time
}

// Outcome reports what happened to an enqueued request.
type Outcome string

const (
	// Accepted means the request was queued for the runner.
	Accepted Outcome = "accepted"
	// Coalesced means an equivalent request was already pending.
	Coalesced Outcome = "coalesced"
	// Dropped means the queue was full or closed.
	Dropped Outcome = "dropped"
)

// RefreshQueue is a bounded channel-backed queue with pending-coalescing.
type RefreshQueue struct {
	requests chan Request

	mu      sync.Mutex
	pending bool
	closed  bool
}

// Option applies a configuration option to the RefreshQueue.
type Option func(*config)

type config struct {
	capacity int
}

// WithCapacity sets the maximum number of queued requests.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// NewRefreshQueue creates a refresh queue.
func NewRefreshQueue(opts ...Option) *RefreshQueue {
	cfg := config{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RefreshQueue{requests: make(chan Request, cfg.capacity)}
}

// Enqueue submits a refresh request. The outcome tells the caller whether
// the request was queued, folded into an already-pending one, or dropped.
func (q *RefreshQueue) Enqueue(ctx context.Context, req Request) Outcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	outcome := q.enqueueLocked(ctx, req)
	metrics.RecordRefreshRequest(string(outcome))
	metrics.UpdateRefreshQueueSize(len(q.requests))
	return outcome
}

func (q *RefreshQueue) enqueueLocked(ctx context.Context, req Request) Outcome {
	if q.closed || ctx.Err() != nil {
		return Dropped
	}
	if q.pending {
		return Coalesced
	}
	select {
	case q.requests <- req:
		q.pending = true
		return Accepted
	default:
		return Dropped
	}
}

// Dequeue returns the channel the runner consumes. The channel closes when
// the queue is closed.
func (q *RefreshQueue) Dequeue() <-chan Request {
	return q.requests
}

// Done marks the in-flight request finished, re-arming coalescing.
func (q *RefreshQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = false
	metrics.UpdateRefreshQueueSize(len(q.requests))
}

// Len returns the current number of queued requests.
func (q *RefreshQueue) Len() int {
	return len(q.requests)
}

// Close shuts the queue down. Subsequent enqueues are dropped.
func (q *RefreshQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.requests)
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *RefreshQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
