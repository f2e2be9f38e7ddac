package ui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"rdesk/util"
)

// Options configures the terminal frame.
type Options struct {
	PollTick time.Duration // 0 uses 300ms
	Logger   *util.Logger
	Input    io.Reader // nil reads the terminal
	Output   io.Writer // nil writes stdout
}

// Terminal is a full-screen Bubble Tea frame.
type Terminal struct {
	frameState
	opts Options
}

// NewTerminal returns a terminal frame.
func NewTerminal(opts Options) *Terminal {
	if opts.PollTick <= 0 {
		opts.PollTick = 300 * time.Millisecond
	}
	return &Terminal{opts: opts}
}

// Run implements engine.Frame.  It returns nil when the user quits or
// ctx is done; the OnClose hooks run either way.
func (t *Terminal) Run(ctx context.Context) error {
	if err := t.bind(); err != nil {
		return err
	}

	popts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	}
	if t.opts.Input != nil {
		popts = append(popts, tea.WithInput(t.opts.Input))
	}
	if t.opts.Output != nil {
		popts = append(popts, tea.WithOutput(t.opts.Output))
	}

	p := tea.NewProgram(t.model(), popts...)
	_, err := p.Run()
	t.close()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (t *Terminal) model() Model {
	t.mu.Lock()
	defer t.mu.Unlock()
	return newModel(modelConfig{
		title:    t.title,
		page:     t.page,
		handler:  t.handler,
		behavior: t.bound,
		pollTick: t.opts.PollTick,
		logger:   t.opts.Logger,
	})
}
