// Package worker runs queued snapshot refreshes. A single worker consumes
// the refresh queue so runs never overlap; the pipeline's first-wins and
// pacing behavior assumes one run at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/domain/snapshot"
	"github.com/okian/huddle/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*snapshot.Document, error)
}

// Queue defines how the worker receives refresh requests.
type Queue interface {
	Dequeue() <-chan queue.Request
	Done()
}

// RefreshWorker consumes refresh requests and runs the pipeline for each.
type RefreshWorker struct {
	queue  Queue
	runner Runner

	done chan struct{}
	log  logger.Logger
}

// Option applies a configuration option to the RefreshWorker.
type Option func(*RefreshWorker)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(w *RefreshWorker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewRefreshWorker creates a refresh worker.
func NewRefreshWorker(q Queue, runner Runner, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:  q,
		runner: runner,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Get().Named("refresh-worker")
	}
	return w
}

// Start launches the consume loop. It returns immediately; the loop exits
// when the context is canceled or the queue closes.
func (w *RefreshWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *RefreshWorker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.queue.Dequeue():
			if !ok {
				return
			}
			w.process(ctx, req)
		}
	}
}

func (w *RefreshWorker) process(ctx context.Context, req queue.Request) {
	defer w.queue.Done()

	w.log.Info(ctx, "processing refresh request",
		logger.String("reason", req.Reason),
		logger.Duration("queued_for", time.Since(req.RequestedAt)))

	doc, err := w.runner.Run(ctx)
	if err != nil {
		w.log.Error(ctx, "refresh run failed", logger.Error(err))
		return
	}
	if !doc.Succeeded() {
		w.log.Warn(ctx, "refresh run finished with failed stages",
			logger.String("run_id", doc.RunID))
	}
}

// Shutdown waits for the in-flight run to finish or the timeout to expire.
// The caller closes the queue first so no new requests are picked up.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	select {
	case <-w.done:
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}
