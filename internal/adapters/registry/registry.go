// Package registry holds messenger button clicks that have not yet been
// confirmed by a bot. A click stays pending until the visitor actually
// writes to the bot; only then is its row appended to the spreadsheet.
package registry

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/metrics"
)

// Default registry configuration constants.
const (
	defaultMaxSize = 10_000
)

// Registry provides access to pending, unconfirmed click events.
type Registry interface {
	// Put stores a pending click keyed by its click ID. An existing
	// entry with the same click ID is replaced.
	Put(ctx context.Context, e model.LeadEvent)

	// Take removes and returns the pending click for clickID.
	// Returns false if no such click is pending.
	Take(ctx context.Context, clickID string) (model.LeadEvent, bool)

	// Len returns the number of pending clicks.
	Len(ctx context.Context) int
}

type entry struct {
	clickID string
	event   model.LeadEvent
}

// InMemoryRegistry implements Registry with a bounded map. When full,
// the oldest pending click is evicted; an evicted click that is later
// confirmed falls back to the in-place sheet update path.
type InMemoryRegistry struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // oldest at front, holds *entry
	maxSize int
}

// NewInMemoryRegistry creates a new in-memory registry with configuration options.
func NewInMemoryRegistry(opts ...Option) *InMemoryRegistry {
	r := &InMemoryRegistry{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	metrics.UpdatePendingClicks(0)

	return r
}

// Put stores a pending click keyed by its click ID.
func (r *InMemoryRegistry) Put(_ context.Context, e model.LeadEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, exists := r.items[e.ClickID]; exists {
		el.Value.(*entry).event = e
		r.order.MoveToBack(el)
		return
	}

	if r.maxSize > 0 && len(r.items) >= r.maxSize {
		oldest := r.order.Front()
		if oldest != nil {
			r.order.Remove(oldest)
			delete(r.items, oldest.Value.(*entry).clickID)
			metrics.RecordRegistryEviction()
		}
	}

	r.items[e.ClickID] = r.order.PushBack(&entry{clickID: e.ClickID, event: e})
	metrics.UpdatePendingClicks(len(r.items))
}

// Take removes and returns the pending click for clickID.
func (r *InMemoryRegistry) Take(_ context.Context, clickID string) (model.LeadEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, exists := r.items[clickID]
	if !exists {
		return model.LeadEvent{}, false
	}

	r.order.Remove(el)
	delete(r.items, clickID)
	metrics.UpdatePendingClicks(len(r.items))

	return el.Value.(*entry).event, true
}

// Len returns the number of pending clicks.
func (r *InMemoryRegistry) Len(_ context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
