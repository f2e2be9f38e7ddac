// Package engine defines the boundary between rdesk and the UI engine
// that hosts it.
//
// The engine owns the main thread.  It calls into rdesk synchronously
// through a Handler and binds behaviors to the page it has loaded.
// Nothing in rdesk calls into the engine from a background goroutine.
package engine

import (
	"context"
	"errors"
)

// Value is anything that can cross the script boundary: nil, bool,
// int64, float64, string, []Value, or map[string]Value.
type Value = any

// ErrUnknownCall is returned by a Handler for a name it does not serve.
var ErrUnknownCall = errors.New("unknown call")

// Page is one of the pages a frame can load.
type Page int

const (
	PageIndex Page = iota
	PageInstall
	PageCM
	PageRemote
)

func (p Page) String() string {
	switch p {
	case PageIndex:
		return "index"
	case PageInstall:
		return "install"
	case PageCM:
		return "cm"
	case PageRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Behavior names bound by the pages.
const (
	BehaviorRemote = "native-remote"
	BehaviorCM     = "connection-manager"
)

// Handler serves script calls.  Implementations run on the engine
// thread and must not block for long.
type Handler interface {
	Call(name string, args []Value) (Value, error)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(name string, args []Value) (Value, error)

// Call calls f(name, args).
func (f HandlerFunc) Call(name string, args []Value) (Value, error) { return f(name, args) }

// BehaviorFactory builds the Handler for a behavior.  The frame calls it
// when the page binds the behavior, possibly more than once.
type BehaviorFactory func() Handler

// Frame is a top-level window of the UI engine.
type Frame interface {
	SetTitle(title string)
	// Window returns the native window handle, or 0 when there is none.
	Window() uintptr
	SetEventHandler(h Handler)
	RegisterBehavior(name string, f BehaviorFactory)
	// OnClose registers fn to run on the engine thread before the frame
	// goes away.
	OnClose(fn func())
	Load(p Page) error
	// Run blocks until the frame is closed or ctx is done.
	Run(ctx context.Context) error
}
