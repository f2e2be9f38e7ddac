package bridge

import (
	"fmt"

	"rdesk/internal/cm"
	"rdesk/internal/engine"
)

// CM is the behavior bound to the connection-manager page.
type CM struct {
	mgr *cm.Manager
}

// NewCM wraps mgr.
func NewCM(mgr *cm.Manager) *CM {
	return &CM{mgr: mgr}
}

// Call implements engine.Handler.
func (c *CM) Call(name string, args []engine.Value) (engine.Value, error) {
	switch name {
	case "get_clients":
		return c.mgr.JSON(), nil
	case "clients_changed":
		return c.mgr.Changed(), nil
	case "authorize":
		return nil, c.mgr.Authorize(int(engine.Int(args, 0)))
	case "close":
		return nil, c.mgr.Close(int(engine.Int(args, 0)))
	}
	return nil, fmt.Errorf("%w: %s", engine.ErrUnknownCall, name)
}
