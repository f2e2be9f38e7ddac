package retry

import (
	"fmt"
	"strings"
	"testing"
	"time"

	rderr "rdesk/internal/errors"
)

var errDown = fmt.Errorf("connection refused")

// fakeClock returns a Breakers whose clock only moves when advanced.
func fakeClock(b *Breakers) func(time.Duration) {
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

// TestBreakers_OpensAfterThreshold verifies consecutive failures open a host.
func TestBreakers_OpensAfterThreshold(t *testing.T) {
	b := NewBreakers(&BreakerConfig{Threshold: 3, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		_ = b.Execute("api.example.com", func() error { return errDown })
	}
	if got := b.State("api.example.com"); got != StateClosed {
		t.Fatalf("after 2 failures state = %s, want closed", got)
	}
	_ = b.Execute("api.example.com", func() error { return errDown })
	if got := b.State("api.example.com"); got != StateOpen {
		t.Fatalf("after 3 failures state = %s, want open", got)
	}
}

// TestBreakers_OpenErrorWrapsSentinel verifies a rejected call skips fn
// and names the host.
func TestBreakers_OpenErrorWrapsSentinel(t *testing.T) {
	b := NewBreakers(&BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	_ = b.Execute("api.example.com", func() error { return errDown })

	called := false
	err := b.Execute("api.example.com", func() error { called = true; return nil })
	if called {
		t.Error("fn ran while the breaker was open")
	}
	if !rderr.Is(err, rderr.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if !strings.Contains(err.Error(), "api.example.com") {
		t.Errorf("err = %q, want the host named", err)
	}
}

// TestBreakers_FnErrorPassesThrough verifies fn's own error is returned
// unchanged while the breaker is closed.
func TestBreakers_FnErrorPassesThrough(t *testing.T) {
	b := NewBreakers(nil)
	if err := b.Execute("h", func() error { return errDown }); err != errDown {
		t.Errorf("err = %v, want %v", err, errDown)
	}
}

// TestBreakers_IsolatedPerKey verifies one dead host leaves others usable.
func TestBreakers_IsolatedPerKey(t *testing.T) {
	b := NewBreakers(&BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	_ = b.Execute("dead.example", func() error { return errDown })

	called := false
	if err := b.Execute("alive.example", func() error { called = true; return nil }); err != nil {
		t.Fatalf("alive.example: %v", err)
	}
	if !called {
		t.Error("alive.example fn not called")
	}
	if b.State("alive.example") != StateClosed {
		t.Error("alive.example should stay closed")
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}

// TestBreakers_SuccessClearsFailures verifies the failure count is
// consecutive.
func TestBreakers_SuccessClearsFailures(t *testing.T) {
	b := NewBreakers(&BreakerConfig{Threshold: 2, Cooldown: time.Hour})

	_ = b.Execute("h", func() error { return errDown })
	_ = b.Execute("h", func() error { return nil })
	_ = b.Execute("h", func() error { return errDown })
	if got := b.State("h"); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

// TestBreakers_CooldownTrial covers the half-open trial call in both
// outcomes.
func TestBreakers_CooldownTrial(t *testing.T) {
	b := NewBreakers(&BreakerConfig{Threshold: 1, Cooldown: 30 * time.Second})
	advance := fakeClock(b)
	_ = b.Execute("h", func() error { return errDown })

	advance(29 * time.Second)
	if err := b.Execute("h", func() error { return nil }); !rderr.Is(err, rderr.ErrCircuitOpen) {
		t.Fatalf("before cooldown err = %v, want ErrCircuitOpen", err)
	}

	advance(time.Second)
	if err := b.Execute("h", func() error { return errDown }); err != errDown {
		t.Fatalf("trial err = %v, want the fn error", err)
	}
	if got := b.State("h"); got != StateOpen {
		t.Fatalf("failed trial state = %s, want open", got)
	}

	advance(30 * time.Second)
	if err := b.Execute("h", func() error { return nil }); err != nil {
		t.Fatalf("trial: %v", err)
	}
	if got := b.State("h"); got != StateClosed {
		t.Errorf("good trial state = %s, want closed", got)
	}
}

// TestBreakers_TrialIsExclusive verifies calls during a trial are rejected.
func TestBreakers_TrialIsExclusive(t *testing.T) {
	b := NewBreakers(&BreakerConfig{Threshold: 1, Cooldown: time.Second})
	advance := fakeClock(b)
	_ = b.Execute("h", func() error { return errDown })
	advance(time.Second)

	var inner error
	_ = b.Execute("h", func() error {
		inner = b.Execute("h", func() error { return nil })
		return nil
	})
	if !rderr.Is(inner, rderr.ErrCircuitOpen) {
		t.Errorf("call during trial = %v, want ErrCircuitOpen", inner)
	}
}

// TestBreakers_OnStateChange verifies each transition is reported with
// its key.
func TestBreakers_OnStateChange(t *testing.T) {
	var got []string
	b := NewBreakers(&BreakerConfig{
		Threshold: 1,
		Cooldown:  time.Second,
		OnStateChange: func(key string, from, to State) {
			got = append(got, fmt.Sprintf("%s:%s->%s", key, from, to))
		},
	})
	advance := fakeClock(b)

	_ = b.Execute("h", func() error { return errDown })
	_ = b.Execute("h", func() error { return nil })
	advance(time.Second)
	_ = b.Execute("h", func() error { return nil })

	want := []string{"h:closed->open", "h:open->half-open", "h:half-open->closed"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("transitions = %v, want %v", got, want)
	}
}

// TestBreakers_Defaults verifies a nil config is usable.
func TestBreakers_Defaults(t *testing.T) {
	b := NewBreakers(nil)
	if b.threshold != 5 || b.cooldown != 30*time.Second {
		t.Errorf("defaults = %d/%v, want 5/30s", b.threshold, b.cooldown)
	}
	if got := b.State("never-seen"); got != StateClosed {
		t.Errorf("unknown key state = %s, want closed", got)
	}
}

// TestState_String covers the log names.
func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(7):      "state(7)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}

// TestHostKey covers the inputs HTTP jobs can produce.
func TestHostKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://api.example.com/v1/check", "api.example.com"},
		{"http://10.0.0.1:8080/x", "10.0.0.1:8080"},
		{"https://user:pw@api.example.com/x", "api.example.com"},
		{"https://API.example.com/a?b=c", "API.example.com"},
		{"http://[::1]:21116/", "[::1]:21116"},
		{"/relative/path", "/relative/path"},
		{"api.example.com/v1", "api.example.com/v1"},
		{"http://bad host/", "http://bad host/"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := HostKey(tt.in); got != tt.want {
			t.Errorf("HostKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
