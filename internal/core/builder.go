// Package core is the orchestration layer.  Build wires every rdesk
// component for one process; Dispatch prepares the frame for the
// resolved mode; Run hands control to the frame.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  bridge  →  core  →  cmd (CLI)
package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"rdesk/config"
	"rdesk/internal/audio"
	"rdesk/internal/bridge"
	"rdesk/internal/cm"
	"rdesk/internal/engine"
	"rdesk/internal/identity"
	"rdesk/internal/jobs"
	"rdesk/internal/metrics"
	"rdesk/internal/mode"
	"rdesk/internal/platform"
	"rdesk/internal/procs"
	"rdesk/internal/registry"
	"rdesk/internal/retain"
	"rdesk/internal/retry"
	"rdesk/internal/session"
	"rdesk/internal/status"
	"rdesk/internal/transport"
	"rdesk/internal/update"
	"rdesk/util"
)

// AppName is the frame title outside remote sessions.
const AppName = "rdesk"

// Options are the inputs of Build.  Config must have been validated.
type Options struct {
	Config  *config.Config
	Logger  *util.Logger
	Frame   engine.Frame
	Hooks   platform.Hooks // nil uses platform.New()
	Version string
	Exe     string // executable for child sessions, "" for this one
	GOOS    string // "" for runtime.GOOS
}

// App is one wired rdesk process.
type App struct {
	cfg    *config.Config
	logger *util.Logger
	frame  engine.Frame
	hooks  platform.Hooks
	goos   string
	wg     sync.WaitGroup

	Metrics  *metrics.Collector
	Job      *status.Job
	Probes   *status.Probes
	Registry *registry.Current
	Guard    *retain.Guard
	Identity *identity.Identity
	Jobs     *jobs.Runner
	Children *procs.Children
	Update   *update.Checker
	Audio    *audio.Relay
	CM       *cm.Manager
	CMServer *cm.Server
	Dialer   transport.Dialer
	UI       *bridge.UI
}

// Build is the composition root.  Nothing it constructs does I/O until
// Dispatch or Run starts it.
func Build(ctx context.Context, opts Options) (*App, error) {
	cfg, logger := opts.Config, opts.Logger
	hooks := opts.Hooks
	if hooks == nil {
		hooks = platform.New()
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	m := metrics.New()
	ident, err := identity.New()
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	children, err := procs.New(opts.Exe, logger, m)
	if err != nil {
		return nil, fmt.Errorf("child sessions: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		frame:    opts.Frame,
		hooks:    hooks,
		goos:     goos,
		Metrics:  m,
		Job:      status.NewJob(),
		Probes:   status.NewProbes(),
		Registry: registry.New(),
		Guard:    retain.New(m),
		Identity: ident,
		Children: children,
		Update:   update.NewChecker(cfg.UpdateURL, opts.Version, cfg.HTTPTimeout, logger),
		Audio:    audio.NewRelay(cfg.AudioSocket, cfg.PulseSocket, logger, m),
		CM:       cm.NewManager(),
		Dialer:   transport.New(cfg, logger, m),
	}
	a.CMServer = cm.NewServer(cfg.CMSocket, a.CM, logger, m)
	a.Jobs = jobs.NewRunner(ctx, jobs.Config{
		Job:      a.Job,
		Probes:   a.Probes,
		Identity: ident,
		Timeout:  cfg.HTTPTimeout,
		Breakers: retry.NewBreakers(&retry.BreakerConfig{OnStateChange: a.breakerChanged}),
		Logger:   logger,
		Metrics:  m,
	})
	a.UI = bridge.NewUI(bridge.Deps{
		AppName:  AppName,
		Version:  opts.Version,
		Identity: ident,
		Jobs:     a.Jobs,
		Job:      a.Job,
		Probes:   a.Probes,
		Registry: a.Registry,
		Guard:    a.Guard,
		Update:   a.Update,
		Children: children,
		Hooks:    hooks,
		Metrics:  m,
		Logger:   logger,
	})
	return a, nil
}

// Run dispatches m, runs the frame until it closes, then stops the
// background services.
func (a *App) Run(ctx context.Context, m mode.Mode) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Dispatch(ctx, m); err != nil {
		return err
	}
	a.logger.Verbose("running %s", m)
	err := a.frame.Run(ctx)

	cancel()
	a.shutdown()
	return err
}

// shutdown closes the current session and the dialer and waits for the
// background services.  Long jobs are not waited for.
func (a *App) shutdown() {
	a.Registry.WithCurrent(func(h session.Handle) {
		if err := h.Close(); err != nil {
			a.logger.Verbose("%v", err)
		}
	})
	if err := a.Dialer.Close(); err != nil {
		a.logger.Verbose("close transport: %v", err)
	}
	a.wg.Wait()
	a.logger.Debug("stats: %s", a.Metrics.JSON())
}

// breakerChanged logs a host's breaker transition and counts openings.
func (a *App) breakerChanged(host string, from, to retry.State) {
	if to == retry.StateOpen {
		a.logger.Warn("requests to %s suspended after repeated failures", host)
		a.Metrics.BreakerOpened()
		return
	}
	a.logger.Verbose("breaker for %s: %s -> %s", host, from, to)
}

// goService runs fn in a goroutine that Run waits for on shutdown.
func (a *App) goService(name string, fn func() error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(); err != nil {
			a.logger.Warn("%s: %v", name, err)
			a.Metrics.RecordError(err.Error())
		}
	}()
}
