package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestArgumentError_Format(t *testing.T) {
	err := &ArgumentError{Args: []string{"--bogus", "x"}, Err: ErrUnknownCommand}
	want := "unknown command: [--bogus x]"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, ErrUnknownCommand) {
		t.Error("should unwrap to ErrUnknownCommand")
	}
}

func TestHookError_Unwrap(t *testing.T) {
	err := Hook("input-capture", ErrHookUnavailable)
	if !Is(err, ErrHookUnavailable) {
		t.Error("should unwrap to ErrHookUnavailable")
	}
	want := "platform hook input-capture: platform hook unavailable"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "rs.example.com:21116", Err: io.EOF, Retryable: true},
			want: "dial rs.example.com:21116: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "listen", Addr: "/run/rdesk/cm.sock", Err: fmt.Errorf("bind failed")},
			want: "listen /run/rdesk/cm.sock: bind failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigError_Format(t *testing.T) {
	err := &ConfigError{
		Field:   "direct_port",
		Value:   70000,
		Message: "out of range 1-65535",
		Hint:    "the default direct-access port is 21118",
	}
	want := "config: direct_port=70000: out of range 1-65535\n  hint: the default direct-access port is 21118"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"argument", &ArgumentError{Err: ErrMissingTarget}, true},
		{"wrapped argument", fmt.Errorf("startup: %w", &ArgumentError{Err: ErrUnknownCommand}), true},
		{"config", &ConfigError{Field: "jump_host", Message: "bad"}, true},
		{"hook", Hook("foreground", ErrHookUnavailable), false},
		{"network", Wrap("dial", "x", io.EOF), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable_Nil(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if IsRetryable(io.EOF) {
		t.Error("plain EOF should not be retryable")
	}
	if !IsRetryable(&NetworkError{Op: "dial", Err: io.EOF, Retryable: true}) {
		t.Error("flagged NetworkError should be retryable")
	}
}
