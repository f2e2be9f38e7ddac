package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv overlays RDESK_* environment variables onto cfg.  Only
// non-empty variables override the existing value.  Boolean values
// accept "1", "true", "yes" and "0", "false", "no" (case-insensitive).
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("RDESK_RENDEZVOUS"); v != "" {
		cfg.RendezvousServer = v
	}
	if v := envInt("RDESK_DIRECT_PORT"); v > 0 {
		cfg.DirectPort = v
	}
	if v := envSeconds("RDESK_CONN_TIMEOUT"); v > 0 {
		cfg.ConnTimeout = v
	}

	// SSH jump host
	if v := os.Getenv("RDESK_JUMP_HOST"); v != "" {
		cfg.JumpSpec = v
	}
	if v := os.Getenv("RDESK_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if b, ok := envBool("RDESK_SSH_AGENT"); ok {
		cfg.UseSSHAgent = b
	}
	if b, ok := envBool("RDESK_STRICT_HOSTKEY"); ok {
		cfg.StrictHostKey = b
	}
	if v := os.Getenv("RDESK_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Background jobs
	if v := os.Getenv("RDESK_UPDATE_URL"); v != "" {
		cfg.UpdateURL = v
	}
	if v := envSeconds("RDESK_HTTP_TIMEOUT"); v > 0 {
		cfg.HTTPTimeout = v
	}

	// Local services
	if b, ok := envBool("RDESK_AUDIO_RELAY"); ok {
		cfg.AudioRelay = b
	}
	if v := os.Getenv("RDESK_CM_SOCKET"); v != "" {
		cfg.CMSocket = v
	}

	// Output
	if v := os.Getenv("RDESK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := envInt("RDESK_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) (value, ok bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

func envSeconds(key string) time.Duration {
	return time.Duration(envInt(key)) * time.Second
}
