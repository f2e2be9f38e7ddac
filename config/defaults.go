package config

import (
	"os"
	"path/filepath"
	"time"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the config file, and environment variable loading.

const (
	// DefaultSSHPort is the standard SSH port for the jump host.
	DefaultSSHPort = 22

	// DefaultRendezvousServer resolves peer ids that are not network
	// addresses.
	DefaultRendezvousServer = "127.0.0.1:21116"

	// DefaultDirectPort is used when a peer id is a bare IP address.
	DefaultDirectPort = 21118

	// DefaultConnTimeout bounds the session transport dial.
	DefaultConnTimeout = 30 * time.Second

	// DefaultHTTPTimeout bounds each background HTTP request.
	DefaultHTTPTimeout = 15 * time.Second

	// DefaultPollInterval is how often the frame polls job status.
	DefaultPollInterval = 300 * time.Millisecond

	// DefaultSweepInterval is the stale child-process sweep cadence.
	DefaultSweepInterval = 100 * time.Millisecond

	// DefaultConfigPath is read when --config is not given.
	DefaultConfigPath = "~/.config/rdesk/rdesk.toml"
)

// DefaultRuntimeDir returns $XDG_RUNTIME_DIR, falling back to the
// system temp directory.
func DefaultRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// DefaultPulseSocket returns the PulseAudio native socket for the
// current user session.
func DefaultPulseSocket() string {
	return filepath.Join(DefaultRuntimeDir(), "pulse", "native")
}
