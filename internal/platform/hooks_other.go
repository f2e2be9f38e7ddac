//go:build !unix && !windows

package platform

import rderr "rdesk/internal/errors"

func enableInputCapture(uintptr) error { return rderr.ErrHookUnavailable }

func disableInputCapture() {}

func setForeground(uintptr) error { return rderr.ErrHookUnavailable }

func isRoot() bool { return false }
