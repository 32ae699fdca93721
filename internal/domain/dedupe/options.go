package dedupe

// Option configures the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of retained ids. Once the bound is hit the
// oldest id is evicted to make room. A value <= 0 disables eviction.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}
