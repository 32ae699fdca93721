// Package worker defines worker contracts for asynchronously logging
// lead events to the spreadsheet and forwarding contacts to the CRM.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event abstracts what workers read off the queue.
// Using the model.LeadEvent type for consistency.
type Event = model.LeadEvent

// Writer appends a lead event row to the spreadsheet.
type Writer interface {
	Append(ctx context.Context, e Event) error
}

// Notifier forwards a lead's contact details to the CRM.
type Notifier interface {
	Forward(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// FailureFunc is invoked when an event could not be logged after all
// retries. Used to release the event's dedupe slot so a resubmission
// is not silently dropped.
type FailureFunc func(ctx context.Context, eventID string)

// Worker processes events off the queue until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining events before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing lead events.
type InMemoryWorker struct {
	queue    Queue
	writer   Writer
	notifier Notifier
	name     string

	onFailure FailureFunc

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, writer Writer, notifier Notifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		writer:   writer,
		notifier: notifier,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent logs a single event to the spreadsheet and, for form
// submissions, forwards the contact to the CRM. A terminal sheet failure
// releases the event's dedupe slot via the failure hook.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: events are passed by value for channel semantics
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	appendStart := time.Now()
	err := w.writer.Append(ctx, event)
	metrics.RecordSheetAppendLatency(float64(time.Since(appendStart).Milliseconds()))

	if err != nil {
		metrics.RecordSheetAppendError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "sheet_append_error")
		w.logger.Error(ctx, "sheet append failed for event",
			logger.String("eventID", event.EventID),
			logger.String("event", event.Event),
			logger.Error(err),
		)
		if w.onFailure != nil {
			w.onFailure(ctx, event.EventID)
		}
		return fmt.Errorf("failed to log event %s: %w", event.EventID, err)
	}
	metrics.RecordSheetAppend()

	// Only form submissions carry contact details worth forwarding.
	if event.Form == nil {
		return nil
	}

	forwardStart := time.Now()
	err = w.notifier.Forward(ctx, event)
	metrics.RecordCRMForwardLatency(float64(time.Since(forwardStart).Milliseconds()))

	if err != nil {
		// The row is already in the sheet; a CRM failure is logged but
		// does not fail the event.
		metrics.RecordCRMForwardError()
		metrics.RecordErrorByComponent("worker", "crm_forward_error")
		w.logger.Error(ctx, "crm forward failed for event",
			logger.String("eventID", event.EventID),
			logger.Error(err),
		)
		return nil
	}
	metrics.RecordCRMForward()

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	writer   Writer
	notifier Notifier

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, writer Writer, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		writer:   writer,
		notifier: notifier,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			writer,
			notifier,
			append(opts, WithName("worker-"+strconv.Itoa(i)))...,
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new events
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
