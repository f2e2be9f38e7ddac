// Package jobs runs the fire-and-forget background operations the UI
// starts: identity changes and HTTP requests.
//
// A job never reports back directly.  It writes its outcome into the
// status.Job slot or the status.Probes cache, which the UI polls.  Jobs
// are not cancelled when a newer one starts; the newer one just takes
// over the visible slot.
package jobs

import (
	"context"
	"net/http"
	"sync"
	"time"

	"rdesk/internal/metrics"
	"rdesk/internal/retry"
	"rdesk/internal/status"
	"rdesk/util"
)

// Job results written to the status slot.
const (
	ResultDone          = "done"
	ResultInvalidFormat = "Invalid format"
)

// MaxBodySize caps how much of a response body is kept.
const MaxBodySize = 1 << 20

// IdentityChanger performs the identity change itself.
type IdentityChanger interface {
	ChangeID(ctx context.Context, oldID, newID string) error
}

// Runner starts jobs.  All Start methods return immediately.
type Runner struct {
	ctx      context.Context
	job      *status.Job
	probes   *status.Probes
	ident    IdentityChanger
	client   *http.Client
	breakers *retry.Breakers
	logger   *util.Logger
	metrics  *metrics.Collector
	wg       sync.WaitGroup
}

// Config wires a Runner.  Job, Probes and Identity are required.
type Config struct {
	Job      *status.Job
	Probes   *status.Probes
	Identity IdentityChanger
	Timeout  time.Duration // per HTTP request, 0 for none
	Breakers *retry.Breakers
	Logger   *util.Logger
	Metrics  *metrics.Collector
}

// NewRunner returns a Runner whose jobs run under ctx.  A nil Breakers
// gets one breaker per host with default settings.
func NewRunner(ctx context.Context, cfg Config) *Runner {
	b := cfg.Breakers
	if b == nil {
		b = retry.NewBreakers(nil)
	}
	return &Runner{
		ctx:      ctx,
		job:      cfg.Job,
		probes:   cfg.Probes,
		ident:    cfg.Identity,
		client:   &http.Client{Timeout: cfg.Timeout},
		breakers: b,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Wait blocks until every job started so far has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}
