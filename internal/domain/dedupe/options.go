// Package dedupe collapses repeated match rows onto one entry per key.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxPerKey sets how many rows may share a key before it is reported by Overflow.
// If maxPerKey <= 0 the check is disabled.
func WithMaxPerKey(maxPerKey int) Option {
	return func(d *inMemoryDeduper) {
		d.maxPerKey = maxPerKey
	}
}
