// Package retain pins value bundles handed to the UI engine for the rest
// of the process.
//
// Some engines read an array result after the call that produced it has
// returned and the caller's copy is gone.  Frames that need it route
// every array result through a Guard; nothing is ever released.
package retain

import (
	"sync"

	"rdesk/internal/metrics"
)

// Bundle is a retained copy of a value slice.  It stays valid for the
// life of the process.
type Bundle struct {
	values []any
}

// Values returns the retained slice.  Callers must not modify it.
func (b *Bundle) Values() []any {
	return b.values
}

// Len returns the number of values in the bundle.
func (b *Bundle) Len() int {
	return len(b.values)
}

// Guard is an append-only store of bundles.
type Guard struct {
	mu      sync.Mutex
	bundles []*Bundle
	metrics *metrics.Collector
}

// New returns an empty Guard.  m may be nil.
func New(m *metrics.Collector) *Guard {
	return &Guard{metrics: m}
}

// Retain copies values into a new bundle and keeps it forever.  The
// caller's slice may be reused as soon as Retain returns.
func (g *Guard) Retain(values []any) *Bundle {
	b := &Bundle{values: append(make([]any, 0, len(values)), values...)}
	g.mu.Lock()
	g.bundles = append(g.bundles, b)
	g.mu.Unlock()
	g.metrics.BundleRetained()
	return b
}

// Len returns how many bundles have been retained.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.bundles)
}
