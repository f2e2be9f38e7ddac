package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"rdesk/internal/metrics"
	"rdesk/tunnel"
	"rdesk/util"
)

// SSHDialer routes session connections through the jump host.  The
// tunnel is connected lazily on the first Dial and watched by a
// tunnel.Manager until Close.
type SSHDialer struct {
	manager *tunnel.Manager
	config  *tunnel.SSHConfig
	logger  *util.Logger
	mu      sync.Mutex
	started bool
	stop    context.CancelFunc
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  The tunnel is not connected until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger, m *metrics.Collector) *SSHDialer {
	return &SSHDialer{
		manager: tunnel.NewManager(tunnel.NewSSHTunnel(cfg, logger), logger, m),
		config:  cfg,
		logger:  logger,
	}
}

// Prepare builds the jump-host auth methods now, asking for a key
// passphrase on the terminal if one is needed.  Call it before a
// terminal frame takes over stdin; a later Dial never prompts.
func (d *SSHDialer) Prepare() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.config.Auth != nil {
		return nil
	}
	cfg := *d.config
	cfg.Passphrase = tunnel.TerminalPassphrase
	methods, err := tunnel.BuildAuthMethods(&cfg)
	if err != nil {
		return fmt.Errorf("jump host auth: %w", err)
	}
	d.config.Auth = methods
	return nil
}

// connect starts the tunnel manager if it is not running yet.  The
// manager's health loop outlives ctx; it stops on Close.
func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	d.logger.Verbose("establishing SSH tunnel to %s@%s:%d",
		d.config.User, d.config.Host, d.config.Port)

	runCtx, cancel := context.WithCancel(context.Background())
	if err := d.manager.Start(ctx, runCtx); err != nil {
		cancel()
		return fmt.Errorf("tunnel: %w", err)
	}

	d.started = true
	d.stop = cancel
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to address through the SSH tunnel, lazily establishing
// the tunnel on the first call.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.manager.Dial(ctx, network, address)
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}
	d.started = false
	d.stop()
	return d.manager.Stop()
}
