package status

import (
	"fmt"
	"sync"
	"testing"
)

// TestJob_Empty verifies a new slot reads as empty.
func TestJob_Empty(t *testing.T) {
	if got := NewJob().Get(); got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
}

// TestJob_ResetClears verifies Reset discards earlier results.
func TestJob_ResetClears(t *testing.T) {
	j := NewJob()
	j.Set("working")
	j.Set("done")
	j.Reset()
	if got := j.Get(); got != "" {
		t.Errorf("Get() after Reset = %q, want empty", got)
	}
}

// TestJob_Overwrite verifies the last Set wins.
func TestJob_Overwrite(t *testing.T) {
	j := NewJob()
	j.Set("done")
	if got := j.Get(); got != "done" {
		t.Fatalf("Get() = %q, want done", got)
	}
	j.Set("x")
	for i := 0; i < 3; i++ {
		if got := j.Get(); got != "x" {
			t.Fatalf("Get() = %q, want x", got)
		}
	}
}

// TestJob_CrossGoroutine verifies a Set on one goroutine is seen on another.
func TestJob_CrossGoroutine(t *testing.T) {
	j := NewJob()
	done := make(chan struct{})
	go func() {
		j.Set("done")
		close(done)
	}()
	<-done
	if got := j.Get(); got != "done" {
		t.Errorf("Get() = %q, want done", got)
	}
}

// TestJob_ConcurrentWriters checks the slot always holds a complete value.
func TestJob_ConcurrentWriters(t *testing.T) {
	j := NewJob()
	valid := make(map[string]bool)
	for i := 0; i < 8; i++ {
		valid[fmt.Sprintf("writer-%d-result", i)] = true
	}
	valid[""] = true

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for k := 0; k < 200; k++ {
				j.Set(fmt.Sprintf("writer-%d-result", n))
			}
		}(i)
	}
	for k := 0; k < 500; k++ {
		if got := j.Get(); !valid[got] {
			t.Fatalf("torn read: %q", got)
		}
	}
	wg.Wait()
}

// TestProbes_Absent verifies an unknown URL reports absence.
func TestProbes_Absent(t *testing.T) {
	p := NewProbes()
	p.Set("http://a.example", "ok")
	if _, ok := p.Get("http://b.example"); ok {
		t.Error("Get(unprobed) reported present")
	}
}

// TestProbes_PendingThenResult walks a probe through its lifecycle.
func TestProbes_PendingThenResult(t *testing.T) {
	p := NewProbes()
	const url = "http://a.example/health"
	p.Begin(url)
	if got, ok := p.Get(url); !ok || got != Pending {
		t.Fatalf("Get() = %q, %v; want pending", got, ok)
	}
	p.Set(url, `{"status_code":200}`)
	if got, _ := p.Get(url); got != `{"status_code":200}` {
		t.Errorf("Get() = %q", got)
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

// TestProbes_Concurrent exercises independent keys from many goroutines.
func TestProbes_Concurrent(t *testing.T) {
	p := NewProbes()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			url := fmt.Sprintf("http://host-%d", n)
			p.Begin(url)
			p.Set(url, url)
			_, _ = p.Get(url)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 16; i++ {
		url := fmt.Sprintf("http://host-%d", i)
		if got, ok := p.Get(url); !ok || got != url {
			t.Errorf("Get(%q) = %q, %v", url, got, ok)
		}
	}
}
