package bridge

import (
	"fmt"

	"rdesk/internal/engine"
	"rdesk/internal/session"
)

// Remote is the behavior bound to the remote page.  It owns the session
// for as long as the page keeps it.
type Remote struct {
	s *session.Session
}

// NewRemote wraps s.
func NewRemote(s *session.Session) *Remote {
	return &Remote{s: s}
}

// Call implements engine.Handler.
func (r *Remote) Call(name string, args []engine.Value) (engine.Value, error) {
	switch name {
	case "get_id":
		return r.s.ID(), nil
	case "get_kind":
		return r.s.Kind().String(), nil
	case "get_status":
		return r.s.Status(), nil
	case "send_key":
		return nil, r.s.SendKey(engine.String(args, 0), engine.Bool(args, 1))
	case "flush_input":
		r.s.FlushInput()
		return nil, nil
	case "close":
		return nil, r.s.Close()
	}
	return nil, fmt.Errorf("%w: %s", engine.ErrUnknownCall, name)
}
