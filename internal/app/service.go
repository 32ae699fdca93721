// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/internal/adapters/crm"
	"github.com/okian/leadgate/internal/adapters/http/api"
	eventqueue "github.com/okian/leadgate/internal/adapters/mq/queue"
	workerpool "github.com/okian/leadgate/internal/adapters/mq/worker"
	"github.com/okian/leadgate/internal/adapters/registry"
	"github.com/okian/leadgate/internal/adapters/sheets"
	"github.com/okian/leadgate/internal/domain/collect"
	"github.com/okian/leadgate/internal/domain/dedupe"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/validate"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
)

// Service implements the API dependencies for the lead pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	pending    registry.Registry
	collector  *collect.Collector
	classifier validate.Classifier

	// External adapters
	writer    sheets.Writer
	notifier  crm.Notifier
	allocator counter.Allocator
	geo       collect.CityResolver

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	registrySize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of sheet writer workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRegistrySize bounds the pending-click registry.
func WithRegistrySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.registrySize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWriter sets the sheet writer. Defaults to a log-only writer.
func WithWriter(w sheets.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithNotifier sets the CRM notifier. Defaults to a no-op.
func WithNotifier(n crm.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAllocator sets the click-id allocator. Defaults to random ids.
func WithAllocator(a counter.Allocator) Option {
	return func(s *Service) {
		if a != nil {
			s.allocator = a
		}
	}
}

// WithGeoResolver sets the GeoIP resolver used by the collector.
func WithGeoResolver(g collect.CityResolver) Option {
	return func(s *Service) {
		if g != nil {
			s.geo = g
		}
	}
}

// WithClassifier overrides the validation policy.
func WithClassifier(c validate.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  2, // the sheet API is the single point of external contention
		queueSize:    10000,
		dedupeSize:   50000,
		registrySize: 10000,
		logger:       nil, // will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting lead pipeline...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.pending = registry.NewInMemoryRegistry(
		registry.WithMaxSize(s.registrySize),
	)
	s.collector = collect.New(s.geo)

	if s.classifier == nil {
		s.classifier = validate.New()
	}
	if s.writer == nil {
		s.writer = sheets.NewLogWriter(nil, 0)
		s.logger.Info(ctx, "no spreadsheet configured, rows will be logged")
	}
	if s.notifier == nil {
		s.notifier = crm.Noop{}
	}
	if s.allocator == nil {
		s.allocator = counter.RandomAllocator{}
	}

	// A terminal write failure releases the dedupe slot so the producer
	// may resubmit the event.
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.writer, s.notifier,
		workerpool.WithOnFailure(func(ctx context.Context, eventID string) {
			s.deduper.Unrecord(ctx, eventID)
		}),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "lead pipeline started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("registrySize", s.registrySize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping lead pipeline...")

	// Shutting down the pool closes the queue first, then drains workers.
	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	if closer, ok := s.allocator.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if closer, ok := s.geo.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "lead pipeline stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// NextClickID allocates a click id for messenger deep links.
func (s *Service) NextClickID(ctx context.Context) string {
	return s.allocator.Next(ctx)
}

// Assemble builds a lead event from the payload and request metadata.
func (s *Service) Assemble(event string, action model.Action, p collect.Payload, meta collect.RequestMeta) model.LeadEvent {
	return s.collector.Assemble(event, action, p, meta)
}

// Classify returns the validation verdict for an assembled event.
func (s *Service) Classify(ctx context.Context, e model.LeadEvent) validate.Verdict {
	return s.classifier.Classify(ctx, e)
}

// Submit enqueues a genuine event for sheet logging.
func (s *Service) Submit(ctx context.Context, e model.LeadEvent) bool {
	s.logger.Debug(ctx, "enqueueing lead event",
		logger.String("eventID", e.EventID),
		logger.String("event", e.Event),
		logger.String("clickID", e.ClickID),
	)
	return s.eventQueue.Enqueue(ctx, e)
}

// RegisterPending stores an unconfirmed click keyed by its click id.
func (s *Service) RegisterPending(ctx context.Context, e model.LeadEvent) {
	s.pending.Put(ctx, e)
	s.logger.Debug(ctx, "click registered as pending",
		logger.String("clickID", e.ClickID),
		logger.String("event", e.Event),
	)
}

// Confirm promotes the pending click for clickID into a genuine
// conversion and queues it for the sheet. When the click is no longer
// pending (evicted, or written before a second confirmation), the
// messenger cell of an existing row is patched in place instead.
// Returns api.ErrUnknownClickID when neither path finds the id.
func (s *Service) Confirm(ctx context.Context, clickID, messenger string) error {
	if e, ok := s.pending.Take(ctx, clickID); ok {
		promoted := e.Confirmed(messenger)
		metrics.RecordRegistryPromotion()
		metrics.RecordEventGenuine()

		if !s.eventQueue.Enqueue(ctx, promoted) {
			// Put the click back so the bot may retry the webhook.
			s.pending.Put(ctx, e)
			return fmt.Errorf("confirm %s: queue saturated", clickID)
		}

		s.logger.Info(ctx, "click confirmed",
			logger.String("clickID", clickID),
			logger.String("messenger", messenger),
		)
		return nil
	}

	updated, err := s.writer.UpdateMessenger(ctx, clickID, messenger)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", clickID, err)
	}
	if !updated {
		metrics.RecordRegistryConfirmMiss()
		return api.ErrUnknownClickID
	}

	s.logger.Info(ctx, "messenger cell updated for confirmed click",
		logger.String("clickID", clickID),
		logger.String("messenger", messenger),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"registrySize": s.registrySize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		pendingLen := s.pending.Len(ctx)

		stats["queueLength"] = queueLen
		stats["pendingClicks"] = pendingLen
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdatePendingClicks(pendingLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
