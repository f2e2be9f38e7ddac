package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	rderr "rdesk/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rdesk.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Overlay(t *testing.T) {
	path := writeConfig(t, `
rendezvous_server = "rs.example.com:21116"
direct_port = 4000
jump_host = "ops@bastion"
ssh_agent = true
update_url = "https://updates.example.com/latest"
http_timeout = "3s"
audio_relay = false
poll_interval = "150ms"
verbose = 2
`)
	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.RendezvousServer != "rs.example.com:21116" {
		t.Errorf("RendezvousServer = %q", cfg.RendezvousServer)
	}
	if cfg.DirectPort != 4000 {
		t.Errorf("DirectPort = %d", cfg.DirectPort)
	}
	if cfg.JumpSpec != "ops@bastion" || !cfg.UseSSHAgent {
		t.Errorf("jump = %q agent = %v", cfg.JumpSpec, cfg.UseSSHAgent)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.AudioRelay {
		t.Error("AudioRelay should be disabled by the file")
	}
	if cfg.PollInterval != 150*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.Verbose != 2 {
		t.Errorf("Verbose = %d", cfg.Verbose)
	}
	// Untouched keys keep their defaults.
	if cfg.ConnTimeout != DefaultConnTimeout {
		t.Errorf("ConnTimeout = %v, want default", cfg.ConnTimeout)
	}
}

// TestLoadFile_DefaultMissing verifies an absent default file leaves
// defaults intact.
func TestLoadFile_DefaultMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := Default()
	if err := LoadFile("", cfg); err != nil {
		t.Fatalf("missing default file should not error: %v", err)
	}
	if cfg.RendezvousServer != DefaultRendezvousServer {
		t.Errorf("RendezvousServer = %q", cfg.RendezvousServer)
	}
}

// TestLoadFile_ExplicitMissing verifies a --config path that does not
// exist is a fatal config error.
func TestLoadFile_ExplicitMissing(t *testing.T) {
	err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"), Default())
	var ce *rderr.ConfigError
	if !rderr.As(err, &ce) || ce.Field != "config" {
		t.Fatalf("err = %v, want ConfigError{config}", err)
	}
	if !rderr.IsFatal(err) {
		t.Error("missing --config file should be fatal")
	}
}

// TestLoadFile_BadDuration verifies duration errors name the key.
func TestLoadFile_BadDuration(t *testing.T) {
	path := writeConfig(t, `conn_timeout = "soon"`)
	err := LoadFile(path, Default())
	var ce *rderr.ConfigError
	if !rderr.As(err, &ce) || ce.Field != "conn_timeout" || ce.Value != "soon" {
		t.Fatalf("err = %v, want ConfigError{conn_timeout=soon}", err)
	}
	if !rderr.IsFatal(err) {
		t.Error("bad duration should be fatal")
	}
}

// TestLoadFile_Malformed verifies TOML syntax errors are fatal.
func TestLoadFile_Malformed(t *testing.T) {
	path := writeConfig(t, `rendezvous_server = `)
	err := LoadFile(path, Default())
	var ce *rderr.ConfigError
	if !rderr.As(err, &ce) || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("err = %v, want a ConfigError from the parser", err)
	}
	if !rderr.IsFatal(err) {
		t.Error("parse error should be fatal")
	}
}
