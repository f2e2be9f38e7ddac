package retry

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	rderr "rdesk/internal/errors"
)

// State is the position of one host's breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown has passed.
	StateOpen
	// StateHalfOpen has one trial call in flight and rejects the rest.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// BreakerConfig is shared by every host in a Breakers set.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that open a
	// host's breaker (default 5).
	Threshold int
	// Cooldown is how long an open breaker rejects calls before one
	// trial call is let through (default 30s).
	Cooldown time.Duration
	// OnStateChange, when set, is called after a host's breaker moves
	// between states.  It runs without any breaker lock held.
	OnStateChange func(key string, from, to State)
}

// Breakers fails calls fast per key once that key has failed Threshold
// times in a row.  HTTP jobs key it by URL host so one dead server does
// not slow down probes to the others.
type Breakers struct {
	threshold int
	cooldown  time.Duration
	notify    func(key string, from, to State)
	now       func() time.Time

	mu    sync.Mutex
	hosts map[string]*hostState
}

type hostState struct {
	state    State
	failures int
	openedAt time.Time
}

// NewBreakers returns an empty set.  A nil cfg uses the defaults.
func NewBreakers(cfg *BreakerConfig) *Breakers {
	b := &Breakers{
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
		hosts:     make(map[string]*hostState),
	}
	if cfg != nil {
		if cfg.Threshold > 0 {
			b.threshold = cfg.Threshold
		}
		if cfg.Cooldown > 0 {
			b.cooldown = cfg.Cooldown
		}
		b.notify = cfg.OnStateChange
	}
	return b
}

// Execute runs fn unless key's breaker is open.  A rejected call returns
// an error wrapping [rderr.ErrCircuitOpen] and fn is not called.
func (b *Breakers) Execute(key string, fn func() error) error {
	if err := b.admit(key); err != nil {
		return err
	}
	err := fn()
	b.record(key, err == nil)
	return err
}

// State returns key's current state.  Unknown keys are closed.
func (b *Breakers) State(key string) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := b.hosts[key]; ok {
		return h.state
	}
	return StateClosed
}

// Len returns the number of keys seen.
func (b *Breakers) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hosts)
}

func (b *Breakers) admit(key string) error {
	b.mu.Lock()
	h, ok := b.hosts[key]
	if !ok {
		h = &hostState{}
		b.hosts[key] = h
	}

	switch h.state {
	case StateOpen:
		left := b.cooldown - b.now().Sub(h.openedAt)
		if left > 0 {
			b.mu.Unlock()
			return fmt.Errorf("%w: %s failed %d times, retry in %v",
				rderr.ErrCircuitOpen, key, h.failures, left.Round(time.Second))
		}
		h.state = StateHalfOpen
		b.mu.Unlock()
		b.changed(key, StateOpen, StateHalfOpen)
		return nil
	case StateHalfOpen:
		b.mu.Unlock()
		return fmt.Errorf("%w: %s is being retried", rderr.ErrCircuitOpen, key)
	}
	b.mu.Unlock()
	return nil
}

func (b *Breakers) record(key string, ok bool) {
	b.mu.Lock()
	h := b.hosts[key]
	from := h.state
	if ok {
		h.failures = 0
		h.state = StateClosed
	} else {
		h.failures++
		if h.state == StateHalfOpen || h.failures >= b.threshold {
			h.state = StateOpen
			h.openedAt = b.now()
		}
	}
	to := h.state
	b.mu.Unlock()

	if from != to {
		b.changed(key, from, to)
	}
}

func (b *Breakers) changed(key string, from, to State) {
	if b.notify != nil {
		b.notify(key, from, to)
	}
}

// HostKey returns the host:port part of rawURL, or rawURL itself when it
// does not parse or carries no host.
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
