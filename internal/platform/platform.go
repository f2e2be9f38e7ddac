// Package platform wraps the native integrations rdesk uses when they
// exist: keyboard capture, window activation, privilege checks, desktop
// detection, and opening URLs.
//
// Every hook is optional.  A hook the platform cannot provide returns an
// error wrapping errors.ErrHookUnavailable and the caller carries on
// without it.
package platform

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/browser"

	rderr "rdesk/internal/errors"
)

// Hooks is the set of native integrations.
type Hooks interface {
	// EnableInputCapture routes low-level keyboard input to window.
	EnableInputCapture(window uintptr) error
	DisableInputCapture()
	// SetForeground brings window to the front.
	SetForeground(window uintptr) error
	IsRoot() bool
	IsWayland() bool
	IsXfce() bool
	OpenURL(rawURL string) error
}

// Native implements Hooks for the running OS.
type Native struct{}

// New returns the hooks for the running OS.
func New() *Native { return &Native{} }

// EnableInputCapture implements Hooks.  No platform backend is shipped,
// so it always returns an error wrapping errors.ErrHookUnavailable.
func (*Native) EnableInputCapture(window uintptr) error {
	if err := enableInputCapture(window); err != nil {
		return rderr.Hook("input-capture", err)
	}
	return nil
}

// DisableInputCapture implements Hooks.
func (*Native) DisableInputCapture() { disableInputCapture() }

// SetForeground implements Hooks.
func (*Native) SetForeground(window uintptr) error {
	if window == 0 {
		return rderr.Hook("foreground", rderr.ErrHookUnavailable)
	}
	if err := setForeground(window); err != nil {
		return rderr.Hook("foreground", err)
	}
	return nil
}

// IsRoot reports whether the process runs with administrative rights.
func (*Native) IsRoot() bool { return isRoot() }

// IsWayland reports whether the desktop session is Wayland.
func (*Native) IsWayland() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") ||
		os.Getenv("WAYLAND_DISPLAY") != ""
}

// IsXfce reports whether the desktop is XFCE.
func (*Native) IsXfce() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return strings.Contains(strings.ToUpper(os.Getenv("XDG_CURRENT_DESKTOP")), "XFCE")
}

// openBrowser hands a URL to the desktop's default handler.
var openBrowser = browser.OpenURL

func init() {
	// Launcher output would draw over the terminal frame.
	browser.Stdout, browser.Stderr = io.Discard, io.Discard
}

// OpenURL opens an http, https, or mailto URL with the desktop's
// default handler.  When no handler is installed the error wraps
// errors.ErrHookUnavailable.
func (*Native) OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "mailto":
	default:
		return fmt.Errorf("open url: unsupported scheme %q", u.Scheme)
	}
	if err := openBrowser(u.String()); err != nil {
		if rderr.Is(err, exec.ErrNotFound) || strings.Contains(err.Error(), "unsupported operating system") {
			return rderr.Hook("open-url", fmt.Errorf("%w: %v", rderr.ErrHookUnavailable, err))
		}
		return rderr.Hook("open-url", err)
	}
	return nil
}
