package ui

import (
	"context"

	"rdesk/util"
)

// Headless is a frame with no display.  It binds the page's behavior,
// waits for ctx, and closes.
type Headless struct {
	frameState
	logger *util.Logger
}

// NewHeadless returns a headless frame.
func NewHeadless(logger *util.Logger) *Headless {
	return &Headless{logger: logger}
}

// Run implements engine.Frame.
func (h *Headless) Run(ctx context.Context) error {
	if err := h.bind(); err != nil {
		return err
	}
	h.mu.Lock()
	title, page := h.title, h.page
	h.mu.Unlock()
	h.logger.Verbose("headless frame %q on page %s", title, page)

	<-ctx.Done()
	h.close()
	return nil
}
