// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event IDs to ensure at-most-once logging.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// This should only be used when an event was marked as seen but failed
	// to be processed (e.g., queue backpressure or a terminal write failure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Default dedupe configuration constants.
const (
	defaultMaxSize = 50_000
)

// inMemoryDeduper implements Deduper with a map plus an insertion-ordered
// ring of ids. When the bounded cache is full the oldest id is evicted.
// maxSize <= 0 disables eviction (unbounded mode).
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, bounded mode only
	head    int      // index of the oldest live entry in order
	dead    int      // unrecorded slots past head, reclaimed by compact
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[id] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, id)
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
// The order slot is left behind, skipped lazily during eviction and
// reclaimed by compaction once dead slots dominate the slice.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)

	if d.maxSize > 0 {
		d.dead++
		d.maybeCompact()
	}
}

// evictOldest drops the least recently recorded id that is still live.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for d.head < len(d.order) {
		id := d.order[d.head]
		d.head++
		if _, live := d.seen[id]; live {
			delete(d.seen, id)
			d.size.Add(-1)
			break
		}
		if d.dead > 0 {
			d.dead--
		}
	}

	d.maybeCompact()
}

// maybeCompact rewrites order to only the live ids, oldest first, once
// the consumed prefix plus unrecorded slots dominate the slice. Keeps
// record/unrecord churn below capacity from growing order without bound.
// Must be called with d.mu held.
func (d *inMemoryDeduper) maybeCompact() {
	if (d.head+d.dead)*2 < len(d.order) {
		return
	}

	kept := make(map[string]struct{}, len(d.seen))
	live := d.order[:0]
	for _, id := range d.order[d.head:] {
		if _, ok := d.seen[id]; !ok {
			continue
		}
		// A re-recorded id may appear twice; keep its oldest slot.
		if _, dup := kept[id]; dup {
			continue
		}
		kept[id] = struct{}{}
		live = append(live, id)
	}
	d.order = live
	d.head = 0
	d.dead = 0
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
