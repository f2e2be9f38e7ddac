// Package config defines the runtime configuration for rdesk and the
// helpers that parse and validate it.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	rderr "rdesk/internal/errors"
	"rdesk/util"
)

// Config holds every tuneable for one rdesk process.
type Config struct {
	// ── Peers ────────────────────────────────────────────────────────
	RendezvousServer string        // host:port used for non-direct peer ids
	DirectPort       int           // port for bare-IP peer ids
	ConnTimeout      time.Duration // session transport dial timeout

	// ── SSH jump host ────────────────────────────────────────────────
	JumpSpec       string // raw [user@]host[:port]
	JumpEnabled    bool
	JumpUser       string
	JumpHost       string
	JumpPort       int
	SSHKeyPath     string
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Background jobs ──────────────────────────────────────────────
	UpdateURL   string // empty disables the update check
	HTTPTimeout time.Duration

	// ── Local services ───────────────────────────────────────────────
	AudioRelay  bool
	AudioSocket string
	PulseSocket string
	CMSocket    string

	// ── UI ───────────────────────────────────────────────────────────
	PollInterval time.Duration
	Headless     bool

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	LogFile string
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	runtime := DefaultRuntimeDir()
	return &Config{
		RendezvousServer: DefaultRendezvousServer,
		DirectPort:       DefaultDirectPort,
		ConnTimeout:      DefaultConnTimeout,
		HTTPTimeout:      DefaultHTTPTimeout,
		AudioRelay:       true,
		AudioSocket:      filepath.Join(runtime, "rdesk", "pa"),
		PulseSocket:      DefaultPulseSocket(),
		CMSocket:         filepath.Join(runtime, "rdesk", "cm.sock"),
		PollInterval:     DefaultPollInterval,
		Verbose:          1,
	}
}

// ── Jump-host spec parser ────────────────────────────────────────────

// jumpRe matches [user@]host[:port].
var jumpRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseJumpSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseJumpSpec(spec string) (user, host string, port int, err error) {
	m := jumpRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid jump host %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid jump host port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent and
// resolves JumpSpec into its parts.  Failures are *errors.ConfigError.
func (c *Config) Validate() error {
	if !util.ValidHostPort(c.RendezvousServer) {
		return &rderr.ConfigError{
			Field:   "rendezvous_server",
			Value:   c.RendezvousServer,
			Message: "expected host:port",
			Hint:    "for example rs.example.com:21116",
		}
	}
	if c.DirectPort < 1 || c.DirectPort > 65535 {
		return &rderr.ConfigError{
			Field:   "direct_port",
			Value:   c.DirectPort,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("the default direct-access port is %d", DefaultDirectPort),
		}
	}
	if c.ConnTimeout < 0 {
		return &rderr.ConfigError{Field: "conn_timeout", Value: c.ConnTimeout, Message: "must not be negative"}
	}
	if c.HTTPTimeout < 0 {
		return &rderr.ConfigError{Field: "http_timeout", Value: c.HTTPTimeout, Message: "must not be negative"}
	}
	if c.PollInterval < 0 {
		return &rderr.ConfigError{Field: "poll_interval", Value: c.PollInterval, Message: "must not be negative"}
	}

	c.JumpEnabled = false
	if c.JumpSpec != "" {
		user, host, port, err := ParseJumpSpec(c.JumpSpec)
		if err != nil {
			return &rderr.ConfigError{
				Field:   "jump_host",
				Value:   c.JumpSpec,
				Message: err.Error(),
				Hint:    "use [user@]host[:port]",
			}
		}
		c.JumpEnabled = true
		c.JumpUser = user
		c.JumpHost = host
		c.JumpPort = port
	}
	return nil
}
