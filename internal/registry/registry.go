// Package registry tracks the one active remote session for code that
// runs outside the UI dispatch path, such as the window-close hook.
package registry

import (
	"sync"

	"rdesk/internal/session"
)

// Current holds at most one session handle.  It does not own the
// handle: the behavior bound to the remote page does.  Replacing or
// clearing the stored handle never closes it.
//
// The handle is only reachable inside WithCurrent, so no caller keeps a
// reference that Publish could make stale.
type Current struct {
	mu     sync.Mutex
	handle session.Handle
}

// New returns an empty registry.
func New() *Current {
	return &Current{}
}

// Publish replaces the stored handle with h.  A nil h clears it.
func (c *Current) Publish(h session.Handle) {
	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
}

// WithCurrent calls fn with the stored handle while holding the lock,
// and reports whether there was one.  fn is not called when the
// registry is empty and must not call Publish.
func (c *Current) WithCurrent(fn func(session.Handle)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return false
	}
	fn(c.handle)
	return true
}
