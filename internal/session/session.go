// Package session implements the outbound remote session that the
// remote page binds to.
//
// A Session only owns the connection lifecycle and the local input
// state.  Start dials in the background; the UI learns the outcome by
// polling Status.  What runs over the connection once it is up belongs
// to the protocol layer.
package session

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	rderr "rdesk/internal/errors"
	"rdesk/internal/metrics"
	"rdesk/internal/mode"
	"rdesk/internal/transport"
	"rdesk/util"
)

// Status values reported while no error has occurred.
const (
	StatusIdle       = "idle"
	StatusConnecting = "connecting"
	StatusConnected  = "connected"
	StatusClosed     = "closed"
)

// Handle is the view of a session shared with the rest of the process.
// The registry and platform shutdown hooks only ever see a Handle.
type Handle interface {
	ID() string
	Kind() mode.Kind
	Status() string
	// FlushInput releases every key the session still holds down.
	FlushInput()
	Close() error
}

// Options are the session parameters taken from the resolved mode.
type Options struct {
	Kind      mode.Kind
	TargetID  string
	Password  string
	ExtraArgs []string
}

// OptionsFrom copies the session fields out of a resolved mode.
func OptionsFrom(rs mode.RemoteSession) Options {
	return Options{
		Kind:      rs.Kind,
		TargetID:  rs.TargetID,
		Password:  rs.Password,
		ExtraArgs: append([]string(nil), rs.ExtraArgs...),
	}
}

// Endpoints says where a session connects to when the target id is not
// itself a network address.
type Endpoints struct {
	Rendezvous string        // host:port of the rendezvous server
	DirectPort int           // port used for bare IP targets
	Timeout    time.Duration // dial timeout, 0 for none
}

// Session is a single outbound remote session.
type Session struct {
	opts    Options
	ep      Endpoints
	dialer  transport.Dialer
	logger  *util.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	status  string
	conn    net.Conn
	cancel  context.CancelFunc
	started bool
	closed  bool
	held    map[string]struct{}
	done    chan struct{}
}

// New constructs a session.  It never fails and does no I/O; call Start
// to connect.  m may be nil.
func New(opts Options, ep Endpoints, d transport.Dialer, logger *util.Logger, m *metrics.Collector) *Session {
	return &Session{
		opts:    opts,
		ep:      ep,
		dialer:  d,
		logger:  logger,
		metrics: m,
		status:  StatusIdle,
		held:    make(map[string]struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the target id.
func (s *Session) ID() string { return s.opts.TargetID }

// Kind returns the session kind.
func (s *Session) Kind() mode.Kind { return s.opts.Kind }

// ExtraArgs returns the pass-through arguments.
func (s *Session) ExtraArgs() []string { return s.opts.ExtraArgs }

// HasPassword reports whether a password was supplied on the command
// line.
func (s *Session) HasPassword() bool { return s.opts.Password != "" }

// Status returns "idle", "connecting", "connected", "closed", or
// "error: <reason>".
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Done is closed once the connect attempt started by Start has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Target returns the address the session dials: the target id itself
// when it is a network address, the rendezvous server otherwise.
func (s *Session) Target() string {
	if addr, ok := util.DirectTarget(s.opts.TargetID, s.ep.DirectPort); ok {
		return addr
	}
	return s.ep.Rendezvous
}

// Start begins connecting in the background and returns immediately.
// Only the first call has an effect.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.status = StatusConnecting
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.metrics.SessionOpened()
	go s.connect(ctx)
}

func (s *Session) connect(ctx context.Context) {
	defer close(s.done)

	addr := s.Target()
	s.logger.Verbose("session %s %s: dialing %s", s.opts.Kind, s.opts.TargetID, addr)

	dctx := ctx
	if s.ep.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.ep.Timeout)
		defer cancel()
	}
	conn, err := s.dialer.Dial(dctx, "tcp", addr)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		err = rderr.Wrap("dial", addr, err)
		s.status = "error: " + err.Error()
		s.logger.Warn("session %s: %v", s.opts.TargetID, err)
		s.metrics.RecordError(err.Error())
		return
	}
	s.conn = conn
	s.status = StatusConnected
	s.logger.Info("session %s %s: connected to %s", s.opts.Kind, s.opts.TargetID, addr)
}

// Close ends the session.  It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.status = StatusClosed
	started := s.started
	conn := s.conn
	s.conn = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if started {
		s.metrics.SessionClosed()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("close session %s: %w", s.opts.TargetID, err)
		}
	}
	return nil
}

// ── Input state ──────────────────────────────────────────────────────

// SendKey records a key transition.  Keys held down are released by
// FlushInput.
func (s *Session) SendKey(key string, down bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rderr.ErrNotConnected
	}
	if down {
		s.held[key] = struct{}{}
	} else {
		delete(s.held, key)
	}
	return nil
}

// HeldKeys returns the keys currently down, sorted.
func (s *Session) HeldKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.held))
	for k := range s.held {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FlushInput releases every held key.  The window calls it on close so
// the peer is not left with a stuck modifier.
func (s *Session) FlushInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.held {
		s.logger.Debug("session %s: releasing %s", s.opts.TargetID, k)
		delete(s.held, k)
	}
}
