// Package ui provides the frames rdesk runs in: a Bubble Tea terminal
// frame and a headless frame for machines without a terminal.
//
// Both implement engine.Frame.  The frame owns the engine thread: every
// Handler call and behavior factory runs on it, never on a worker.
package ui

import (
	"fmt"
	"sync"

	"rdesk/internal/engine"
)

// frameState is the part of engine.Frame shared by every frame.
type frameState struct {
	mu        sync.Mutex
	title     string
	page      engine.Page
	loaded    bool
	handler   engine.Handler
	behaviors map[string]engine.BehaviorFactory
	onClose   []func()
	bound     engine.Handler
}

func (f *frameState) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

// Window returns 0: neither frame owns a native window.
func (f *frameState) Window() uintptr { return 0 }

func (f *frameState) SetEventHandler(h engine.Handler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *frameState) RegisterBehavior(name string, fn engine.BehaviorFactory) {
	f.mu.Lock()
	if f.behaviors == nil {
		f.behaviors = make(map[string]engine.BehaviorFactory)
	}
	f.behaviors[name] = fn
	f.mu.Unlock()
}

func (f *frameState) OnClose(fn func()) {
	f.mu.Lock()
	f.onClose = append(f.onClose, fn)
	f.mu.Unlock()
}

func (f *frameState) Load(p engine.Page) error {
	switch p {
	case engine.PageIndex, engine.PageInstall, engine.PageCM, engine.PageRemote:
	default:
		return fmt.Errorf("ui: unknown page %d", int(p))
	}
	f.mu.Lock()
	f.page = p
	f.loaded = true
	f.mu.Unlock()
	return nil
}

// Title returns the current title.
func (f *frameState) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

// Bound returns the behavior the loaded page bound, or nil.
func (f *frameState) Bound() engine.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bound
}

// pageBehavior names the behavior a page binds, or "".
func pageBehavior(p engine.Page) string {
	switch p {
	case engine.PageRemote:
		return engine.BehaviorRemote
	case engine.PageCM:
		return engine.BehaviorCM
	default:
		return ""
	}
}

// bind runs the loaded page's behavior factory, if one is registered.
func (f *frameState) bind() error {
	f.mu.Lock()
	if !f.loaded {
		f.mu.Unlock()
		return fmt.Errorf("ui: no page loaded")
	}
	factory := f.behaviors[pageBehavior(f.page)]
	f.mu.Unlock()

	var h engine.Handler
	if factory != nil {
		h = factory()
	}
	f.mu.Lock()
	f.bound = h
	f.mu.Unlock()
	return nil
}

// close runs the OnClose hooks in registration order.
func (f *frameState) close() {
	f.mu.Lock()
	hooks := append([]func(){}, f.onClose...)
	f.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
