// Package dedupe collapses repeated match rows onto one entry per key.
package dedupe

import (
	"context"
	"errors"
	"sort"
)

// ErrTooManyRows reports keys that appeared more often than allowed.
var ErrTooManyRows = errors.New("too many rows share a match key")

// defaultMaxPerKey is the expected row count per physical match: one per team.
const defaultMaxPerKey = 2

// Deduper records seen match keys so only the first occurrence is kept.
type Deduper interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Occurrences returns how many times key was offered.
	Occurrences(key string) int

	// Overflow lists keys offered more than the configured maximum, sorted.
	Overflow() []string

	Size() int64
}

// inMemoryDeduper tracks occurrence counts per key.
// Not safe for concurrent use; the loader runs single-threaded.
type inMemoryDeduper struct {
	seen      map[string]int
	maxPerKey int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxPerKey: defaultMaxPerKey,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	return d
}

// SeenAndRecord checks if key was seen and records the occurrence either way.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	n := d.seen[key]
	d.seen[key] = n + 1
	return n > 0
}

// Occurrences returns how many times key was offered.
func (d *inMemoryDeduper) Occurrences(key string) int {
	return d.seen[key]
}

// Overflow lists keys offered more than maxPerKey times.
// A non-positive maxPerKey disables the check.
func (d *inMemoryDeduper) Overflow() []string {
	if d.maxPerKey <= 0 {
		return nil
	}
	var keys []string
	for k, n := range d.seen {
		if n > d.maxPerKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Size returns the number of distinct keys recorded.
func (d *inMemoryDeduper) Size() int64 {
	return int64(len(d.seen))
}
