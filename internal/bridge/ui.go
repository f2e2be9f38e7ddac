// Package bridge is the script-call surface the UI engine sees.  Each
// handler maps call names to rdesk operations; none of them blocks.
package bridge

import (
	"fmt"
	"sync"

	"rdesk/internal/engine"
	"rdesk/internal/identity"
	"rdesk/internal/jobs"
	"rdesk/internal/metrics"
	"rdesk/internal/mode"
	"rdesk/internal/platform"
	"rdesk/internal/procs"
	"rdesk/internal/registry"
	"rdesk/internal/retain"
	"rdesk/internal/session"
	"rdesk/internal/status"
	"rdesk/internal/update"
	"rdesk/util"
)

// Deps are the collaborators of the UI handler.
type Deps struct {
	AppName  string
	Version  string
	Identity *identity.Identity
	Jobs     *jobs.Runner
	Job      *status.Job
	Probes   *status.Probes
	Registry *registry.Current
	Guard    *retain.Guard
	Update   *update.Checker
	Children *procs.Children
	Hooks    platform.Hooks
	Metrics  *metrics.Collector
	Logger   *util.Logger
}

// UI is the event handler of every page.
type UI struct {
	d Deps

	mu   sync.Mutex
	size [4]int64 // x, y, w, h saved by closing
}

// NewUI returns the page event handler.
func NewUI(d Deps) *UI {
	return &UI{d: d}
}

// Call implements engine.Handler.
func (u *UI) Call(name string, args []engine.Value) (engine.Value, error) {
	switch name {
	// ── identity ─────────────────────────────────────────────────────
	case "get_id":
		return u.d.Identity.ID(), nil
	case "get_uuid":
		return u.d.Identity.UUID(), nil
	case "get_fingerprint":
		return u.d.Identity.Fingerprint(), nil
	case "change_id":
		u.d.Jobs.StartIdentityChange(engine.String(args, 0), u.d.Identity.ID())
		return nil, nil
	case "is_ok_change_id":
		return u.d.Identity.CanChangeID(), nil
	case "get_async_job_status":
		return u.d.Job.Get(), nil

	// ── application ──────────────────────────────────────────────────
	case "get_app_name":
		return u.d.AppName, nil
	case "get_version":
		return u.d.Version, nil
	case "get_new_version":
		return u.d.Update.NewVersion(), nil
	case "get_software_update_url":
		return u.d.Update.URL(), nil
	case "get_stats":
		return u.d.Metrics.JSON(), nil

	// ── http ─────────────────────────────────────────────────────────
	case "http_request":
		u.d.Jobs.StartHTTPRequest(engine.String(args, 0), engine.String(args, 1),
			engine.OptString(args, 2), engine.String(args, 3))
		return nil, nil
	case "post_request":
		u.d.Jobs.StartHTTPPost(engine.String(args, 0), engine.String(args, 1), engine.String(args, 2))
		return nil, nil
	case "get_http_status":
		if v, ok := u.d.Probes.Get(engine.String(args, 0)); ok {
			return v, nil
		}
		return nil, nil

	// ── window ───────────────────────────────────────────────────────
	case "closing":
		u.closing(args)
		return nil, nil
	case "get_size":
		u.mu.Lock()
		s := u.size
		u.mu.Unlock()
		return u.d.Guard.Retain([]any{s[0], s[1], s[2], s[3]}).Values(), nil

	// ── sessions ─────────────────────────────────────────────────────
	case "new_remote":
		return nil, u.newRemote(engine.String(args, 0), engine.String(args, 1), engine.Bool(args, 2))
	case "recent_sessions_updated":
		return u.d.Children.Updated(), nil

	// ── platform ─────────────────────────────────────────────────────
	case "open_url":
		return nil, u.d.Hooks.OpenURL(engine.String(args, 0))
	case "is_root":
		return u.d.Hooks.IsRoot(), nil
	case "current_is_wayland":
		return u.d.Hooks.IsWayland(), nil
	case "is_xfce":
		return u.d.Hooks.IsXfce(), nil
	}
	return nil, fmt.Errorf("%w: %s", engine.ErrUnknownCall, name)
}

// closing releases held keys of the current session and remembers the
// window geometry for get_size.
func (u *UI) closing(args []engine.Value) {
	u.d.Registry.WithCurrent(func(h session.Handle) {
		h.FlushInput()
	})
	u.mu.Lock()
	for i := range u.size {
		u.size[i] = engine.Int(args, i)
	}
	u.mu.Unlock()
	u.d.Logger.Debug("window closing at %v", u.size)
}

// newRemote opens a session of the named kind in a new process.
func (u *UI) newRemote(id, kindName string, forceRelay bool) error {
	kind, ok := mode.KindFromName(kindName)
	if !ok {
		return fmt.Errorf("new_remote: unknown session type %q", kindName)
	}
	args := []string{kind.Flag(), id}
	if forceRelay {
		args = append(args, "", "--relay")
	}
	if err := u.d.Children.Spawn(args...); err != nil {
		u.d.Logger.Warn("new_remote %s %s: %v", kind, id, err)
		return err
	}
	return nil
}
