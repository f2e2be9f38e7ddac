// Package retry holds the two failure policies of rdesk's background
// network work: Backoff for update checks and jump-host reconnects, and
// per-host Breakers for HTTP jobs.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ── stop signal ──────────────────────────────────────────────────────

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.  Do returns the wrapped
// error at once.  Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err}
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff retries an operation with exponentially growing waits.  Zero
// fields take the values noted below.
type Backoff struct {
	InitialDelay time.Duration // first wait, default 1s
	MaxDelay     time.Duration // cap on a single wait, default 60s
	Multiplier   float64       // growth per attempt, default 2
	MaxAttempts  int           // total tries, 0 retries until ctx is done
	Jitter       bool          // spread each wait by up to a quarter

	// OnRetry, when set, is called after a failed attempt with the wait
	// before the next one.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// ShortBackoff is for one-shot background work that should give up
// quickly: three attempts, starting at 2s.
func ShortBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		MaxAttempts:  3,
		Jitter:       true,
	}
}

// Do calls fn with a 1-based attempt number until it returns nil, returns
// a [Permanent] error, runs out of attempts or ctx is done.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		var p permanent
		if errors.As(err, &p) {
			return p.err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := b.wait(attempt)
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry stopped after %d attempts: %w", attempt, ctx.Err())
		case <-t.C:
		}
	}
}

// wait returns the pause after the given failed attempt.
func (b *Backoff) wait(attempt int) time.Duration {
	d := b.InitialDelay
	if d <= 0 {
		d = time.Second
	}
	limit := b.MaxDelay
	if limit <= 0 {
		limit = time.Minute
	}
	mult := b.Multiplier
	if mult <= 0 {
		mult = 2
	}

	for i := 1; i < attempt && d < limit; i++ {
		d = time.Duration(float64(d) * mult)
	}
	if d > limit {
		d = limit
	}
	if b.Jitter {
		d = spread(d)
	}
	return d
}

// spread moves d by a random amount of at most a quarter either way.
func spread(d time.Duration) time.Duration {
	q := int64(d) / 4
	if q <= 0 {
		return d
	}
	return d - time.Duration(q) + time.Duration(rand.Int63n(2*q+1))
}
