package tunnel

import (
	"context"
	"net"
	"sync"
	"time"

	"rdesk/internal/metrics"
	"rdesk/internal/retry"
	"rdesk/util"
)

// HealthInterval is how often the Manager checks the tunnel.
const HealthInterval = 10 * time.Second

// Manager owns a Tunnel for the life of a session transport.  It checks
// the connection periodically and reconnects with backoff when it drops.
type Manager struct {
	tunnel   Tunnel
	logger   *util.Logger
	metrics  *metrics.Collector
	interval time.Duration
	mu       sync.RWMutex
	stopped  bool
}

// NewManager returns a Manager for the given tunnel.  m may be nil.
func NewManager(t Tunnel, logger *util.Logger, m *metrics.Collector) *Manager {
	return &Manager{tunnel: t, logger: logger, metrics: m, interval: HealthInterval}
}

// Start connects the tunnel using dialCtx, then watches it until runCtx
// is done or Stop is called.
func (m *Manager) Start(dialCtx, runCtx context.Context) error {
	if err := m.tunnel.Connect(dialCtx); err != nil {
		return err
	}
	go m.healthLoop(runCtx)
	return nil
}

// Dial opens a connection through the tunnel.
func (m *Manager) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	return m.tunnel.Dial(ctx, network, address)
}

// Stop shuts the tunnel down and ends the health loop.
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	return m.tunnel.Close()
}

func (m *Manager) isStopped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopped
}

func (m *Manager) healthLoop(ctx context.Context) {
	tick := time.NewTicker(m.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if m.isStopped() {
				return
			}
			if m.tunnel.IsAlive() {
				continue
			}
			m.logger.Warn("SSH tunnel connection lost, reconnecting")
			if err := m.reconnect(ctx); err != nil {
				m.logger.Error("SSH tunnel reconnect failed: %v", err)
				m.metrics.RecordError(err.Error())
				return
			}
		}
	}
}

func (m *Manager) reconnect(ctx context.Context) error {
	b := retry.ShortBackoff()
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.logger.Verbose("tunnel reconnect attempt %d failed: %v (next in %v)", attempt, err, wait)
	}
	return b.Do(ctx, func(_ int) error {
		if m.isStopped() {
			return retry.Permanent(context.Canceled)
		}
		if err := m.tunnel.Connect(ctx); err != nil {
			return err
		}
		m.metrics.TunnelReconnect()
		m.logger.Info("SSH tunnel re-established")
		return nil
	})
}
