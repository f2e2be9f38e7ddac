package audio

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"rdesk/internal/metrics"
	"rdesk/util"
)

func socketDir(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	dir, err := os.MkdirTemp("", "rda")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// TestRelay_ForwardsToPulse verifies bytes flow both ways through the relay.
func TestRelay_ForwardsToPulse(t *testing.T) {
	dir := socketDir(t)
	pulsePath := filepath.Join(dir, "pulse")
	listenPath := filepath.Join(dir, "sub", "pa")

	pulse, err := net.Listen("unix", pulsePath)
	if err != nil {
		t.Fatal(err)
	}
	defer pulse.Close()
	go func() {
		c, err := pulse.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		io.Copy(c, c) //nolint:errcheck
	}()

	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	m := metrics.New()
	r := NewRelay(listenPath, pulsePath, l, m)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Serve(ctx) }()

	select {
	case <-r.Ready():
	case err := <-errCh:
		t.Fatalf("Serve: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay not ready")
	}

	conn, err := net.Dial("unix", listenPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write([]byte("sample\n")); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || line != "sample\n" {
		t.Fatalf("echo = %q, %v", line, err)
	}
	conn.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
	if m.Snapshot().RelayConns != 1 {
		t.Errorf("relay conns = %d", m.Snapshot().RelayConns)
	}
}

// TestRelay_ReplacesStaleSocket verifies a leftover file does not block startup.
func TestRelay_ReplacesStaleSocket(t *testing.T) {
	dir := socketDir(t)
	listenPath := filepath.Join(dir, "pa")
	if err := os.WriteFile(listenPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	r := NewRelay(listenPath, filepath.Join(dir, "absent"), l, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- r.Serve(ctx) }()

	select {
	case <-r.Ready():
	case err := <-errCh:
		t.Fatalf("Serve: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay not ready")
	}
}
