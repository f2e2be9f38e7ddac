//go:build unix

package platform

import (
	"golang.org/x/sys/unix"

	rderr "rdesk/internal/errors"
)

func enableInputCapture(uintptr) error { return rderr.ErrHookUnavailable }

func disableInputCapture() {}

func setForeground(uintptr) error { return rderr.ErrHookUnavailable }

func isRoot() bool { return unix.Geteuid() == 0 }
