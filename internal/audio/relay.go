// Package audio runs the local audio relay: sessions connect to a unix
// socket owned by rdesk and each connection is spliced onto the
// PulseAudio server socket.
package audio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"rdesk/internal/metrics"
	"rdesk/util"
)

// Relay is the audio relay server.
type Relay struct {
	listenPath string
	pulsePath  string
	logger     *util.Logger
	metrics    *metrics.Collector

	ready chan struct{}
	once  sync.Once
}

// NewRelay returns a relay listening on listenPath and forwarding to the
// PulseAudio socket at pulsePath.
func NewRelay(listenPath, pulsePath string, logger *util.Logger, m *metrics.Collector) *Relay {
	return &Relay{
		listenPath: listenPath,
		pulsePath:  pulsePath,
		logger:     logger,
		metrics:    m,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the listening socket exists.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Serve accepts connections until ctx is done.  A stale socket file
// left by an earlier run is replaced.
func (r *Relay) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.listenPath), 0o700); err != nil {
		return fmt.Errorf("audio relay: %w", err)
	}
	if err := os.Remove(r.listenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("audio relay: remove stale socket: %w", err)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", r.listenPath)
	if err != nil {
		return fmt.Errorf("audio relay: %w", err)
	}
	r.once.Do(func() { close(r.ready) })
	r.logger.Verbose("audio relay listening on %s -> %s", r.listenPath, r.pulsePath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("audio relay accept: %w", err)
		}
		r.metrics.RelayConn()
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.handle(ctx, conn)
		}()
	}
}

func (r *Relay) handle(ctx context.Context, conn net.Conn) {
	var d net.Dialer
	upstream, err := d.DialContext(ctx, "unix", r.pulsePath)
	if err != nil {
		r.logger.Warn("audio relay: pulse server %s: %v", r.pulsePath, err)
		conn.Close()
		return
	}
	if err := util.Relay(ctx, conn, upstream); err != nil {
		r.logger.Debug("audio relay: %v", err)
	}
}
