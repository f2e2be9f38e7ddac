// Package metrics provides lock-free counters for the runtime statistics
// of one rdesk process.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one process.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	jobsStarted    atomic.Int64
	jobsFailed     atomic.Int64
	probesTotal    atomic.Int64
	childrenTotal  atomic.Int64
	childrenReaped atomic.Int64
	relayConns     atomic.Int64
	bundles        atomic.Int64
	reconnects     atomic.Int64
	breakersOpened atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Sessions ─────────────────────────────────────────────────────────

// SessionOpened increments both the active and total session counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the number of sessions not yet closed.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// ── Background jobs ──────────────────────────────────────────────────

// JobStarted records a long job being launched.
func (c *Collector) JobStarted() {
	if c == nil {
		return
	}
	c.jobsStarted.Add(1)
}

// JobFailed records a long job ending with an error status.
func (c *Collector) JobFailed() {
	if c == nil {
		return
	}
	c.jobsFailed.Add(1)
}

// ProbeStarted records an HTTP probe being launched.
func (c *Collector) ProbeStarted() {
	if c == nil {
		return
	}
	c.probesTotal.Add(1)
}

// Jobs returns the started and failed long-job counts.
func (c *Collector) Jobs() (started, failed int64) {
	if c == nil {
		return 0, 0
	}
	return c.jobsStarted.Load(), c.jobsFailed.Load()
}

// ── Child processes ──────────────────────────────────────────────────

// ChildSpawned records a session child process being started.
func (c *Collector) ChildSpawned() {
	if c == nil {
		return
	}
	c.childrenTotal.Add(1)
}

// ChildReaped records an exited child being swept.
func (c *Collector) ChildReaped() {
	if c == nil {
		return
	}
	c.childrenReaped.Add(1)
}

// ── Local services ───────────────────────────────────────────────────

// RelayConn records a connection accepted by a local relay or IPC server.
func (c *Collector) RelayConn() {
	if c == nil {
		return
	}
	c.relayConns.Add(1)
}

// BundleRetained records a value bundle pinned for the process lifetime.
func (c *Collector) BundleRetained() {
	if c == nil {
		return
	}
	c.bundles.Add(1)
}

// TunnelReconnect records the jump-host tunnel being re-established.
func (c *Collector) TunnelReconnect() {
	if c == nil {
		return
	}
	c.reconnects.Add(1)
}

// TunnelReconnects returns the total tunnel reconnection count.
func (c *Collector) TunnelReconnects() int64 {
	if c == nil {
		return 0
	}
	return c.reconnects.Load()
}

// BreakerOpened records a host's circuit breaker opening.
func (c *Collector) BreakerOpened() {
	if c == nil {
		return
	}
	c.breakersOpened.Add(1)
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	JobsStarted      int64  `json:"jobs_started"`
	JobsFailed       int64  `json:"jobs_failed"`
	ProbesTotal      int64  `json:"probes_total"`
	ChildrenSpawned  int64  `json:"children_spawned"`
	ChildrenReaped   int64  `json:"children_reaped"`
	RelayConns       int64  `json:"relay_connections"`
	BundlesRetained  int64  `json:"bundles_retained"`
	TunnelReconnects int64  `json:"tunnel_reconnects"`
	BreakersOpened   int64  `json:"breakers_opened"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:   c.sessionsActive.Load(),
		SessionsTotal:    c.sessionsTotal.Load(),
		JobsStarted:      c.jobsStarted.Load(),
		JobsFailed:       c.jobsFailed.Load(),
		ProbesTotal:      c.probesTotal.Load(),
		ChildrenSpawned:  c.childrenTotal.Load(),
		ChildrenReaped:   c.childrenReaped.Load(),
		RelayConns:       c.relayConns.Load(),
		BundlesRetained:  c.bundles.Load(),
		TunnelReconnects: c.reconnects.Load(),
		BreakersOpened:   c.breakersOpened.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
