// Package errors provides domain-specific error types for rdesk.
//
// The taxonomy follows how far a failure is allowed to travel: argument
// and configuration errors abort startup, everything else degrades to a
// log line or a status string that the UI polls.
package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingTarget   = errors.New("missing target id")
	ErrHookUnavailable = errors.New("platform hook unavailable")
	ErrNotConnected    = errors.New("not connected")
	ErrTunnelClosed    = errors.New("tunnel is closed")
	ErrInvalidID       = errors.New("invalid id format")
	ErrCircuitOpen     = errors.New("circuit breaker is open")
)

// ── Structured error types ───────────────────────────────────────────

// ArgumentError is a startup failure caused by the process arguments.
type ArgumentError struct {
	Args []string // offending argument vector (after the program name)
	Err  error    // ErrUnknownCommand or ErrMissingTarget
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v: [%s]", e.Err, strings.Join(e.Args, " "))
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// HookError reports an optional native integration that could not be
// enabled.  Callers log it and carry on.
type HookError struct {
	Hook string // "input-capture", "foreground", ...
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("platform hook %s: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "dial", "listen", "accept", "request"
	Addr      string // network address or URL involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with jump-host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "channel"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config key
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: %s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// Hook creates a HookError.
func Hook(hook string, err error) *HookError {
	return &HookError{Hook: hook, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsFatal reports whether err must abort startup.  Only argument and
// configuration errors qualify.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ae *ArgumentError
	if errors.As(err, &ae) {
		return true
	}
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
