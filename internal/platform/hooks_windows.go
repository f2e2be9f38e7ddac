//go:build windows

package platform

import (
	"golang.org/x/sys/windows"

	rderr "rdesk/internal/errors"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

// enableInputCapture needs a low-level keyboard hook pumped by the
// thread that owns window.  No frame here runs a native message loop.
func enableInputCapture(uintptr) error {
	return rderr.ErrHookUnavailable
}

func disableInputCapture() {}

func setForeground(window uintptr) error {
	if err := procSetForegroundWindow.Find(); err != nil {
		return err
	}
	r, _, err := procSetForegroundWindow.Call(window)
	if r == 0 {
		return err
	}
	return nil
}

func isRoot() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
