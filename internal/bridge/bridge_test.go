package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"rdesk/internal/cm"
	"rdesk/internal/engine"
	"rdesk/internal/identity"
	"rdesk/internal/jobs"
	"rdesk/internal/metrics"
	"rdesk/internal/mode"
	"rdesk/internal/procs"
	"rdesk/internal/registry"
	"rdesk/internal/retain"
	"rdesk/internal/session"
	"rdesk/internal/status"
	"rdesk/internal/transport"
	"rdesk/internal/update"
	"rdesk/util"
)

type fakeHooks struct {
	opened []string
	root   bool
}

func (f *fakeHooks) EnableInputCapture(uintptr) error { return nil }
func (f *fakeHooks) DisableInputCapture()             {}
func (f *fakeHooks) SetForeground(uintptr) error      { return nil }
func (f *fakeHooks) IsRoot() bool                     { return f.root }
func (f *fakeHooks) IsWayland() bool                  { return false }
func (f *fakeHooks) IsXfce() bool                     { return false }
func (f *fakeHooks) OpenURL(u string) error           { f.opened = append(f.opened, u); return nil }

func quietLogger() *util.Logger {
	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	ui     *UI
	deps   Deps
	hooks  *fakeHooks
	runner *jobs.Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("child spawning needs a POSIX true(1)")
	}
	exe, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not found")
	}
	logger := quietLogger()
	m := metrics.New()
	ident, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	children, err := procs.New(exe, logger, m)
	if err != nil {
		t.Fatal(err)
	}
	job, probes := status.NewJob(), status.NewProbes()
	runner := jobs.NewRunner(context.Background(), jobs.Config{
		Job:      job,
		Probes:   probes,
		Identity: ident,
		Timeout:  time.Second,
		Logger:   logger,
		Metrics:  m,
	})
	hooks := &fakeHooks{root: true}
	d := Deps{
		AppName:  "rdesk",
		Version:  "1.2.3",
		Identity: ident,
		Jobs:     runner,
		Job:      job,
		Probes:   probes,
		Registry: registry.New(),
		Guard:    retain.New(m),
		Update:   update.NewChecker("", "1.2.3", time.Second, logger),
		Children: children,
		Hooks:    hooks,
		Metrics:  m,
		Logger:   logger,
	}
	return &fixture{ui: NewUI(d), deps: d, hooks: hooks, runner: runner}
}

// TestUI_Identity verifies the identity calls.
func TestUI_Identity(t *testing.T) {
	f := newFixture(t)
	id, err := f.ui.Call("get_id", nil)
	if err != nil || id != f.deps.Identity.ID() {
		t.Errorf("get_id = %v, %v", id, err)
	}
	if v, _ := f.ui.Call("get_uuid", nil); v == "" {
		t.Error("get_uuid empty")
	}
	if v, _ := f.ui.Call("is_ok_change_id", nil); v != f.deps.Identity.CanChangeID() {
		t.Errorf("is_ok_change_id = %v, want %v", v, f.deps.Identity.CanChangeID())
	}
	if v, _ := f.ui.Call("get_app_name", nil); v != "rdesk" {
		t.Errorf("get_app_name = %v", v)
	}
	if v, _ := f.ui.Call("get_new_version", nil); v != "" {
		t.Errorf("get_new_version = %v, want empty before a check", v)
	}
}

// TestUI_ChangeIDInvalid verifies change_id reports through the job slot.
func TestUI_ChangeIDInvalid(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ui.Call("change_id", []engine.Value{"1bad"}); err != nil {
		t.Fatalf("change_id: %v", err)
	}
	f.runner.Wait()
	if v, _ := f.ui.Call("get_async_job_status", nil); v != jobs.ResultInvalidFormat {
		t.Errorf("status = %v, want %q", v, jobs.ResultInvalidFormat)
	}
}

// TestUI_ChangeIDDone verifies a valid id change completes.
func TestUI_ChangeIDDone(t *testing.T) {
	f := newFixture(t)
	f.ui.Call("change_id", []engine.Value{"alice_01"}) //nolint:errcheck
	f.runner.Wait()
	if v, _ := f.ui.Call("get_async_job_status", nil); v != jobs.ResultDone {
		t.Fatalf("status = %v, want done", v)
	}
	if v, _ := f.ui.Call("get_id", nil); v != "alice_01" {
		t.Errorf("get_id = %v after change", v)
	}
}

// TestUI_HTTPStatusUnprobed verifies get_http_status is nil for unknown URLs.
func TestUI_HTTPStatusUnprobed(t *testing.T) {
	f := newFixture(t)
	v, err := f.ui.Call("get_http_status", []engine.Value{"http://nowhere.example"})
	if err != nil || v != nil {
		t.Errorf("get_http_status = %v, %v; want nil", v, err)
	}
}

// TestUI_ClosingFlushesAndSize verifies closing releases held keys of
// the current session and that get_size returns the retained geometry.
func TestUI_ClosingFlushesAndSize(t *testing.T) {
	f := newFixture(t)
	s := session.New(session.Options{Kind: mode.Connect, TargetID: "peer"},
		session.Endpoints{Rendezvous: "127.0.0.1:1"}, &transport.TCPDialer{}, quietLogger(), nil)
	s.SendKey("ctrl", true) //nolint:errcheck
	f.deps.Registry.Publish(s)

	args := []engine.Value{int64(10), int64(20), int64(800), int64(600)}
	if _, err := f.ui.Call("closing", args); err != nil {
		t.Fatalf("closing: %v", err)
	}
	if held := s.HeldKeys(); len(held) != 0 {
		t.Errorf("held keys after closing = %v", held)
	}

	v, err := f.ui.Call("get_size", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.([]any)
	if !ok || len(got) != 4 || got[2] != int64(800) {
		t.Errorf("get_size = %#v", v)
	}
	if f.deps.Guard.Len() != 1 {
		t.Errorf("retained bundles = %d, want 1", f.deps.Guard.Len())
	}
}

// TestUI_NewRemote verifies a child is spawned for a known type.
func TestUI_NewRemote(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ui.Call("new_remote", []engine.Value{"123456789", "connect", true}); err != nil {
		t.Fatalf("new_remote: %v", err)
	}
	if _, err := f.ui.Call("new_remote", []engine.Value{"123456789", "teleport", false}); err == nil {
		t.Error("new_remote with unknown type succeeded")
	}
	if n := f.deps.Metrics.Snapshot().ChildrenSpawned; n != 1 {
		t.Errorf("children spawned = %d, want 1", n)
	}
}

// TestUI_Platform verifies the platform calls reach the hooks.
func TestUI_Platform(t *testing.T) {
	f := newFixture(t)
	if v, _ := f.ui.Call("is_root", nil); v != true {
		t.Errorf("is_root = %v", v)
	}
	if _, err := f.ui.Call("open_url", []engine.Value{"https://example.com"}); err != nil {
		t.Fatal(err)
	}
	if len(f.hooks.opened) != 1 {
		t.Errorf("opened = %v", f.hooks.opened)
	}
}

// TestUI_Stats verifies get_stats returns the metrics snapshot.
func TestUI_Stats(t *testing.T) {
	f := newFixture(t)
	v, _ := f.ui.Call("get_stats", nil)
	var snap metrics.Snapshot
	if err := json.Unmarshal([]byte(v.(string)), &snap); err != nil {
		t.Fatalf("get_stats not JSON: %v", err)
	}
}

// TestUI_Unknown verifies an unknown call name is rejected.
func TestUI_Unknown(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ui.Call("format_disk", nil); !errors.Is(err, engine.ErrUnknownCall) {
		t.Errorf("err = %v, want ErrUnknownCall", err)
	}
}

// TestRemote_Calls exercises the remote behavior.
func TestRemote_Calls(t *testing.T) {
	s := session.New(session.Options{Kind: mode.FileTransfer, TargetID: "peer"},
		session.Endpoints{Rendezvous: "127.0.0.1:1"}, &transport.TCPDialer{}, quietLogger(), nil)
	r := NewRemote(s)

	if v, _ := r.Call("get_kind", nil); v != "file-transfer" {
		t.Errorf("get_kind = %v", v)
	}
	if v, _ := r.Call("get_status", nil); v != session.StatusIdle {
		t.Errorf("get_status = %v", v)
	}
	if _, err := r.Call("send_key", []engine.Value{"shift", true}); err != nil {
		t.Fatal(err)
	}
	r.Call("flush_input", nil) //nolint:errcheck
	if len(s.HeldKeys()) != 0 {
		t.Errorf("held = %v after flush_input", s.HeldKeys())
	}
	if _, err := r.Call("close", nil); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Call("get_status", nil); v != session.StatusClosed {
		t.Errorf("get_status = %v after close", v)
	}
	if _, err := r.Call("send_key", []engine.Value{"a", true}); err == nil {
		t.Error("send_key on closed session succeeded")
	}
}

// TestCM_Calls exercises the connection-manager behavior.
func TestCM_Calls(t *testing.T) {
	mgr := cm.NewManager()
	var sent []cm.Message
	mgr.Add(cm.Client{ID: 7, PeerID: "123456789", Name: "bob"}, func(msg cm.Message) error {
		sent = append(sent, msg)
		return nil
	})
	c := NewCM(mgr)

	v, err := c.Call("get_clients", nil)
	if err != nil {
		t.Fatal(err)
	}
	var clients []cm.Client
	if err := json.Unmarshal([]byte(v.(string)), &clients); err != nil || len(clients) != 1 {
		t.Fatalf("get_clients = %v (%v)", v, err)
	}
	if _, err := c.Call("authorize", []engine.Value{int64(7)}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Call("authorize", []engine.Value{int64(99)}); err == nil {
		t.Error("authorize of unknown client succeeded")
	}
	if len(sent) != 1 {
		t.Errorf("messages sent = %d, want 1", len(sent))
	}
}
