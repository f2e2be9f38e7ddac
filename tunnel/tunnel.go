// Package tunnel carries session traffic through an SSH jump host
// (jump_host in the config), using golang.org/x/crypto/ssh.
package tunnel

import (
	"context"
	"net"
)

// Tunnel is an encrypted channel to a gateway through which TCP
// connections can be forwarded.
type Tunnel interface {
	// Connect establishes (or re-establishes) the tunnel.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}
