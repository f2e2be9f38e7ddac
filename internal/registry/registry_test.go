package registry

import (
	"fmt"
	"sync"
	"testing"

	"rdesk/internal/mode"
	"rdesk/internal/session"
)

type fakeHandle struct {
	id      string
	flushed int
	closed  bool
}

func (f *fakeHandle) ID() string      { return f.id }
func (f *fakeHandle) Kind() mode.Kind { return mode.Connect }
func (f *fakeHandle) Status() string  { return "connected" }
func (f *fakeHandle) FlushInput()     { f.flushed++ }
func (f *fakeHandle) Close() error    { f.closed = true; return nil }

// TestCurrent_Empty verifies fn is not called before any Publish.
func TestCurrent_Empty(t *testing.T) {
	c := New()
	if c.WithCurrent(func(session.Handle) { t.Error("fn called on empty registry") }) {
		t.Error("WithCurrent reported a handle")
	}
}

// TestCurrent_ReplaceKeepsOldOwnerValid verifies only the newest handle is
// visible and the previous one is left alone.
func TestCurrent_ReplaceKeepsOldOwnerValid(t *testing.T) {
	a := &fakeHandle{id: "a"}
	b := &fakeHandle{id: "b"}
	c := New()
	c.Publish(a)
	c.Publish(b)

	var seen []string
	c.WithCurrent(func(h session.Handle) {
		seen = append(seen, h.ID())
		h.FlushInput()
	})
	if len(seen) != 1 || seen[0] != "b" {
		t.Errorf("seen = %v, want [b]", seen)
	}
	if a.closed || a.flushed != 0 {
		t.Errorf("previous handle touched: closed=%v flushed=%d", a.closed, a.flushed)
	}
	if a.ID() != "a" || a.Status() != "connected" {
		t.Error("previous handle no longer usable")
	}
	if b.flushed != 1 {
		t.Errorf("b.flushed = %d, want 1", b.flushed)
	}
}

// TestCurrent_PublishNilClears verifies a nil Publish empties the registry.
func TestCurrent_PublishNilClears(t *testing.T) {
	c := New()
	c.Publish(&fakeHandle{id: "a"})
	c.Publish(nil)
	if c.WithCurrent(func(session.Handle) {}) {
		t.Error("registry should be empty")
	}
}

// TestCurrent_Concurrent publishes and reads from many goroutines.
func TestCurrent_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Publish(&fakeHandle{id: fmt.Sprintf("h%d", n)})
		}(i)
		go func() {
			defer wg.Done()
			c.WithCurrent(func(h session.Handle) {
				if h.ID() == "" {
					t.Error("empty id")
				}
			})
		}()
	}
	wg.Wait()
	if !c.WithCurrent(func(session.Handle) {}) {
		t.Error("expected a handle after concurrent publishes")
	}
}
