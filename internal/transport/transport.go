// Package transport opens the network connection a remote session runs
// over.  A session either dials the peer (or the rendezvous server)
// directly, or goes through an SSH jump host when one is configured.
package transport

import (
	"context"
	"net"

	"rdesk/config"
	"rdesk/internal/metrics"
	"rdesk/tunnel"
	"rdesk/util"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// Preparer is implemented by dialers that may need the user before the
// first Dial, such as an SSH key passphrase.
type Preparer interface {
	Prepare() error
}

// New returns the Dialer selected by cfg: an SSHDialer through the jump
// host when jump_host is set, a TCPDialer otherwise.  cfg must have been
// validated.
func New(cfg *config.Config, logger *util.Logger, m *metrics.Collector) Dialer {
	if !cfg.JumpEnabled {
		return &TCPDialer{Timeout: cfg.ConnTimeout}
	}
	return NewSSHDialer(&tunnel.SSHConfig{
		User:          cfg.JumpUser,
		Host:          cfg.JumpHost,
		Port:          cfg.JumpPort,
		KeyPath:       cfg.SSHKeyPath,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.ConnTimeout,
	}, logger, m)
}
