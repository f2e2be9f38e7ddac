// Package procs tracks the session windows this process spawns as
// child processes and sweeps them once they exit.
package procs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"rdesk/internal/metrics"
	"rdesk/util"
)

type child struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// Children is the set of live child processes.
type Children struct {
	exe     string
	logger  *util.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	procs   []*child
	updated atomic.Bool
}

// New returns an empty set that spawns exe.  An empty exe means the
// running executable.
func New(exe string, logger *util.Logger, m *metrics.Collector) (*Children, error) {
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		exe = self
	}
	return &Children{exe: exe, logger: logger, metrics: m}, nil
}

// Spawn starts exe with args and tracks it until it exits.  The child's
// stdout and stderr go to the null device so they cannot draw over this
// process's terminal frame; children keep their own log file.
func (c *Children) Spawn(args ...string) error {
	cmd := exec.Command(c.exe, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %v: %w", args, err)
	}

	ch := &child{cmd: cmd, done: make(chan struct{})}
	go func() {
		cmd.Wait() //nolint:errcheck
		close(ch.done)
	}()

	c.mu.Lock()
	c.procs = append(c.procs, ch)
	c.mu.Unlock()

	c.metrics.ChildSpawned()
	c.logger.Verbose("spawned pid %d: %v", cmd.Process.Pid, args)
	return nil
}

// Reap drops every child that has exited and returns how many it
// dropped.  Dropping at least one raises the Updated flag.
func (c *Children) Reap() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.procs[:0]
	n := 0
	for _, ch := range c.procs {
		select {
		case <-ch.done:
			n++
			c.metrics.ChildReaped()
			c.logger.Debug("child pid %d exited", ch.cmd.Process.Pid)
		default:
			live = append(live, ch)
		}
	}
	for i := len(live); i < len(c.procs); i++ {
		c.procs[i] = nil
	}
	c.procs = live
	if n > 0 {
		c.updated.Store(true)
	}
	return n
}

// Sweep calls Reap every interval until ctx is done.
func (c *Children) Sweep(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			c.Reap()
		}
	}
}

// Updated reports whether a child has exited since the last call, and
// clears the flag.
func (c *Children) Updated() bool {
	return c.updated.Swap(false)
}

// Len returns the number of children not yet reaped.
func (c *Children) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.procs)
}
