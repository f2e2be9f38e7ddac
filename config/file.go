package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	rderr "rdesk/internal/errors"
)

// fileConfig mirrors the TOML layout.  Pointer fields distinguish
// "absent" from an explicit zero value.
type fileConfig struct {
	RendezvousServer string `toml:"rendezvous_server"`
	DirectPort       *int   `toml:"direct_port"`
	ConnTimeout      string `toml:"conn_timeout"`

	JumpHost      string `toml:"jump_host"`
	SSHKey        string `toml:"ssh_key"`
	SSHAgent      *bool  `toml:"ssh_agent"`
	StrictHostKey *bool  `toml:"strict_host_key"`
	KnownHosts    string `toml:"known_hosts"`

	UpdateURL   string `toml:"update_url"`
	HTTPTimeout string `toml:"http_timeout"`

	AudioRelay  *bool  `toml:"audio_relay"`
	AudioSocket string `toml:"audio_socket"`
	PulseSocket string `toml:"pulse_socket"`
	CMSocket    string `toml:"cm_socket"`

	PollInterval string `toml:"poll_interval"`

	Verbose *int   `toml:"verbose"`
	LogFile string `toml:"log_file"`
}

// LoadFile overlays the TOML file at path onto cfg.  An empty path
// means DefaultConfigPath, which may be absent; a path given explicitly
// must exist.  Failures are *errors.ConfigError.
func LoadFile(path string, cfg *Config) error {
	explicit := strings.TrimSpace(path) != ""
	resolved, err := resolvePath(path)
	if err != nil {
		return &rderr.ConfigError{Field: "config", Value: path, Message: err.Error()}
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return &rderr.ConfigError{
			Field:   "config",
			Value:   resolved,
			Message: err.Error(),
			Hint:    "check the --config path",
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return &rderr.ConfigError{Field: "config", Value: resolved, Message: err.Error()}
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return &rderr.ConfigError{Field: "config", Value: resolved, Message: "parse: " + err.Error()}
	}
	return raw.apply(cfg)
}

func (f *fileConfig) apply(cfg *Config) error {
	setString(&cfg.RendezvousServer, f.RendezvousServer)
	if f.DirectPort != nil {
		cfg.DirectPort = *f.DirectPort
	}
	if err := setDuration(&cfg.ConnTimeout, "conn_timeout", f.ConnTimeout); err != nil {
		return err
	}

	setString(&cfg.JumpSpec, f.JumpHost)
	setString(&cfg.SSHKeyPath, expand(f.SSHKey))
	if f.SSHAgent != nil {
		cfg.UseSSHAgent = *f.SSHAgent
	}
	if f.StrictHostKey != nil {
		cfg.StrictHostKey = *f.StrictHostKey
	}
	setString(&cfg.KnownHostsPath, expand(f.KnownHosts))

	setString(&cfg.UpdateURL, f.UpdateURL)
	if err := setDuration(&cfg.HTTPTimeout, "http_timeout", f.HTTPTimeout); err != nil {
		return err
	}

	if f.AudioRelay != nil {
		cfg.AudioRelay = *f.AudioRelay
	}
	setString(&cfg.AudioSocket, expand(f.AudioSocket))
	setString(&cfg.PulseSocket, expand(f.PulseSocket))
	setString(&cfg.CMSocket, expand(f.CMSocket))

	if err := setDuration(&cfg.PollInterval, "poll_interval", f.PollInterval); err != nil {
		return err
	}

	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	setString(&cfg.LogFile, expand(f.LogFile))
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return &rderr.ConfigError{
			Field:   key,
			Value:   v,
			Message: "not a duration",
			Hint:    `use a duration such as "10s" or "1m30s"`,
		}
	}
	*dst = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath
	}
	return expandPath(path)
}

func expand(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
