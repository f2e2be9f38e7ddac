package procs

import (
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"rdesk/internal/metrics"
	"rdesk/util"
)

func shell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found")
	}
	return sh
}

func newChildren(t *testing.T, exe string, m *metrics.Collector) *Children {
	t.Helper()
	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	c, err := New(exe, l, m)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// TestSweep_ReapsExitedChild verifies an exited child is dropped and
// raises the updated flag once.
func TestSweep_ReapsExitedChild(t *testing.T) {
	m := metrics.New()
	c := newChildren(t, shell(t), m)
	if err := c.Spawn("-c", "exit 0"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if c.Updated() {
		t.Error("Updated before any exit")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Sweep(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(5 * time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Fatal("child not reaped")
	}
	if !c.Updated() {
		t.Error("Updated() = false after reap")
	}
	if c.Updated() {
		t.Error("Updated() should clear the flag")
	}
	snap := m.Snapshot()
	if snap.ChildrenSpawned != 1 || snap.ChildrenReaped != 1 {
		t.Errorf("metrics = %d/%d", snap.ChildrenSpawned, snap.ChildrenReaped)
	}
}

// TestReap_KeepsRunningChild verifies a live child survives a sweep.
func TestReap_KeepsRunningChild(t *testing.T) {
	c := newChildren(t, shell(t), nil)
	if err := c.Spawn("-c", "sleep 2"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() {
		c.mu.Lock()
		for _, ch := range c.procs {
			ch.cmd.Process.Kill() //nolint:errcheck
		}
		c.mu.Unlock()
	}()

	if n := c.Reap(); n != 0 {
		t.Errorf("Reap() = %d, want 0", n)
	}
	if c.Len() != 1 || c.Updated() {
		t.Errorf("Len() = %d, want 1 with no update", c.Len())
	}
}

// TestSpawn_MissingExecutable verifies a start failure is returned.
func TestSpawn_MissingExecutable(t *testing.T) {
	c := newChildren(t, "/nonexistent/rdesk", nil)
	if err := c.Spawn("--connect", "123"); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d", c.Len())
	}
}

// TestSpawn_OutputDetached verifies a child cannot write to the parent's
// stdout or stderr.
func TestSpawn_OutputDetached(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = w, w
	c := newChildren(t, shell(t), nil)
	err = c.Spawn("-c", "echo leaked; echo leaked >&2")
	os.Stdout, os.Stderr = stdout, stderr
	if err != nil {
		w.Close()
		t.Fatalf("Spawn: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for c.Reap() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Close()
	out, _ := io.ReadAll(r)
	if len(out) != 0 {
		t.Errorf("child wrote %q to the parent's terminal", out)
	}
}
