package core

import (
	"context"
	"fmt"

	"rdesk/config"
	"rdesk/internal/bridge"
	"rdesk/internal/engine"
	rderr "rdesk/internal/errors"
	"rdesk/internal/mode"
	"rdesk/internal/session"
	"rdesk/internal/transport"
)

// Dispatch prepares the frame for m: title, event handler, behaviors,
// background services and page.  It returns once the page is loaded;
// the frame is not run.
func (a *App) Dispatch(ctx context.Context, m mode.Mode) error {
	a.frame.SetTitle(AppName)

	var page engine.Page
	switch m := m.(type) {
	case mode.Main:
		a.setupMain(ctx)
		page = engine.PageIndex
	case mode.Install:
		a.frame.SetEventHandler(a.UI)
		page = engine.PageInstall
	case mode.ConnectionManager:
		a.setupCM(ctx)
		page = engine.PageCM
	case mode.RemoteSession:
		a.setupRemote(ctx, m)
		page = engine.PageRemote
	default:
		return fmt.Errorf("core: unhandled mode %T", m)
	}

	if a.goos == "windows" {
		if err := a.hooks.SetForeground(a.frame.Window()); err != nil {
			a.logger.Verbose("%v", err)
		}
	}
	return a.frame.Load(page)
}

// ── mode setup ───────────────────────────────────────────────────────

func (a *App) setupMain(ctx context.Context) {
	a.frame.SetEventHandler(a.UI)

	a.goService("child sweep", func() error {
		a.Children.Sweep(ctx, config.DefaultSweepInterval)
		return nil
	})
	a.goService("update check", func() error {
		return a.Update.Check(ctx)
	})
	if a.goos == "linux" && a.cfg.AudioRelay {
		a.goService("audio relay", func() error {
			return a.Audio.Serve(ctx)
		})
	}
}

func (a *App) setupCM(ctx context.Context) {
	a.frame.SetEventHandler(a.UI)
	a.frame.RegisterBehavior(engine.BehaviorCM, func() engine.Handler {
		return bridge.NewCM(a.CM)
	})
	a.goService("connection manager", func() error {
		return a.CMServer.Serve(ctx)
	})
}

func (a *App) setupRemote(ctx context.Context, rs mode.RemoteSession) {
	a.frame.SetEventHandler(a.UI)

	if err := a.hooks.EnableInputCapture(a.frame.Window()); err != nil {
		if rderr.Is(err, rderr.ErrHookUnavailable) {
			a.logger.Verbose("%v", err)
		} else {
			a.logger.Warn("%v", err)
		}
	}
	a.frame.SetTitle(rs.TargetID)

	// Anything interactive happens here, before the frame owns the tty.
	if p, ok := a.Dialer.(transport.Preparer); ok {
		if err := p.Prepare(); err != nil {
			a.logger.Warn("%v", err)
		}
	}

	ep := session.Endpoints{
		Rendezvous: a.cfg.RendezvousServer,
		DirectPort: a.cfg.DirectPort,
		Timeout:    a.cfg.ConnTimeout,
	}
	a.frame.RegisterBehavior(engine.BehaviorRemote, func() engine.Handler {
		s := session.New(session.OptionsFrom(rs), ep, a.Dialer, a.logger, a.Metrics)
		s.Start(ctx)
		a.Registry.Publish(s)
		return bridge.NewRemote(s)
	})

	a.frame.OnClose(func() {
		a.Registry.WithCurrent(func(h session.Handle) {
			h.FlushInput()
		})
		a.hooks.DisableInputCapture()
	})
}
