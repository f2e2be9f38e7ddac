// Package mode turns the process argument vector into the single
// operation mode the process runs for its whole lifetime.
//
// A Mode is one of Main, Install, ConnectionManager, or RemoteSession.
// Modes are plain values: once Resolve returns one it is only read.
package mode

// Command-line tokens recognised as the first argument.  Matching is
// case-sensitive.
const (
	FlagPlay         = "--play"
	FlagInstall      = "--install"
	FlagCM           = "--cm"
	FlagConnect      = "--connect"
	FlagFileTransfer = "--file-transfer"
	FlagPortForward  = "--port-forward"
	FlagRDP          = "--rdp"
)

// Mode is the resolved operation.  The unexported method closes the
// set of implementations to this package so every switch over a Mode
// can be exhaustive.
type Mode interface {
	isMode()
	String() string
}

// Main is the console mode started with no arguments.
type Main struct{}

// Install is the unattended installer page.
type Install struct{}

// ConnectionManager bridges the inbound connections of this machine to
// the UI.
type ConnectionManager struct{}

// RemoteSession is an outbound session of a given Kind.
type RemoteSession struct {
	Kind      Kind
	TargetID  string
	Password  string   // empty when not given
	ExtraArgs []string // remaining tokens, verbatim and in order
}

func (Main) isMode()              {}
func (Install) isMode()           {}
func (ConnectionManager) isMode() {}
func (RemoteSession) isMode()     {}

func (Main) String() string              { return "main" }
func (Install) String() string           { return "install" }
func (ConnectionManager) String() string { return "connection-manager" }

func (r RemoteSession) String() string {
	return r.Kind.String() + " " + r.TargetID
}

// ── Session kinds ────────────────────────────────────────────────────

// Kind is the sub-type of a remote session.
type Kind int

const (
	Connect Kind = iota
	FileTransfer
	PortForward
	RDP
)

// String returns the kind name without the leading dashes.
func (k Kind) String() string {
	switch k {
	case Connect:
		return "connect"
	case FileTransfer:
		return "file-transfer"
	case PortForward:
		return "port-forward"
	case RDP:
		return "rdp"
	default:
		return "unknown"
	}
}

// Flag returns the command-line token that selects k.
func (k Kind) Flag() string {
	return "--" + k.String()
}

// KindFromFlag maps a session flag to its Kind.
func KindFromFlag(flag string) (Kind, bool) {
	switch flag {
	case FlagConnect:
		return Connect, true
	case FlagFileTransfer:
		return FileTransfer, true
	case FlagPortForward:
		return PortForward, true
	case FlagRDP:
		return RDP, true
	}
	return 0, false
}

// KindFromName maps a kind name such as "file-transfer" to its Kind.
// It accepts the name with or without leading dashes.
func KindFromName(name string) (Kind, bool) {
	if len(name) < 2 || name[:2] != "--" {
		name = "--" + name
	}
	return KindFromFlag(name)
}

// IsModeFlag reports whether tok is a token that starts a mode.
func IsModeFlag(tok string) bool {
	switch tok {
	case FlagPlay, FlagInstall, FlagCM:
		return true
	}
	_, ok := KindFromFlag(tok)
	return ok
}
