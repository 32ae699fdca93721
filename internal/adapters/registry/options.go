package registry

// Option applies a configuration option to the InMemoryRegistry.
type Option func(*InMemoryRegistry)

// WithMaxSize bounds the number of pending clicks. A value <= 0
// disables eviction.
func WithMaxSize(n int) Option {
	return func(r *InMemoryRegistry) {
		r.maxSize = n
	}
}
