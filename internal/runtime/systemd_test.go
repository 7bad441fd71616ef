package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/system"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

func testSystemdConduit() *config.Conduit {
	return &config.Conduit{
		Name:       "relay",
		InstanceID: "1e2d3c4b-5a69-4788-9a0b-c1d2e3f4a5b6",
		Backend:    config.BackendSystemd,
		Command:    []string{"/usr/bin/socat", "TCP-LISTEN:9000,fork", "TCP:10.0.0.5:9000"},
	}
}

func newTestSystemd(t *testing.T, user bool) (*SystemdRuntime, *system.MockExecutor, string) {
	t.Helper()
	dir := t.TempDir()
	exec := system.NewMockExecutor()
	return NewSystemdRuntimeWithExecutor(unit.NewWriter(dir, "conduit-"), user, exec), exec, dir
}

func TestSystemdRuntime_Create(t *testing.T) {
	rt, exec, dir := newTestSystemd(t, false)

	if err := rt.Create(context.Background(), CreateOptions{Conduit: testSystemdConduit(), Start: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "conduit-relay.service")); err != nil {
		t.Errorf("unit file not written: %v", err)
	}

	want := []string{
		"systemctl daemon-reload",
		"systemctl enable --now conduit-relay.service",
	}
	if diff := cmp.Diff(want, exec.CommandLines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemdRuntime_CreateUserNoStart(t *testing.T) {
	rt, exec, _ := newTestSystemd(t, true)

	if err := rt.Create(context.Background(), CreateOptions{Conduit: testSystemdConduit()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable conduit-relay.service",
	}
	if diff := cmp.Diff(want, exec.CommandLines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemdRuntime_CreateRefusesContainerConduit(t *testing.T) {
	rt, exec, dir := newTestSystemd(t, false)

	c := testSystemdConduit()
	c.Backend = config.BackendDocker
	c.Image = "alpine"

	err := rt.Create(context.Background(), CreateOptions{Conduit: c})
	if !errors.Is(err, unit.ErrContainerManaged) {
		t.Fatalf("Create error = %v, want ErrContainerManaged", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("unit dir should stay empty, has %d entries", len(entries))
	}
	if len(exec.Commands) != 0 {
		t.Errorf("no systemctl call expected, got %v", exec.CommandLines())
	}
}

func TestSystemdRuntime_Destroy(t *testing.T) {
	rt, exec, dir := newTestSystemd(t, false)
	ctx := context.Background()

	if err := rt.Create(ctx, CreateOptions{Conduit: testSystemdConduit()}); err != nil {
		t.Fatal(err)
	}
	exec.Reset()

	if err := rt.Destroy(ctx, "relay"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "conduit-relay.service")); !os.IsNotExist(err) {
		t.Error("unit file should be removed")
	}

	want := []string{
		"systemctl disable --now conduit-relay.service",
		"systemctl daemon-reload",
	}
	if diff := cmp.Diff(want, exec.CommandLines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemdRuntime_RemoveUnits(t *testing.T) {
	rt, exec, dir := newTestSystemd(t, true)

	legacy := filepath.Join(dir, "conduit-web-docker.service")
	if err := os.WriteFile(legacy, []byte("[Unit]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := rt.RemoveUnits(context.Background(), "conduit-web-docker.service", "conduit-gone.service"); err != nil {
		t.Fatalf("RemoveUnits failed: %v", err)
	}
	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Error("legacy unit file should be removed")
	}

	// Missing files are not disabled; the manager is reloaded once.
	want := []string{
		"systemctl --user disable --now conduit-web-docker.service",
		"systemctl --user daemon-reload",
	}
	if diff := cmp.Diff(want, exec.CommandLines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusFromShow(t *testing.T) {
	tests := []struct {
		name       string
		show       string
		wantStatus ContainerStatus
		wantHealth string
		wantCount  int
	}{
		{"active", "LoadState=loaded\nActiveState=active\nSubState=running\nNRestarts=2\nExecMainStartTimestamp=Mon 2026-01-05 10:00:00 UTC\n", StatusRunning, "", 2},
		{"activating", "LoadState=loaded\nActiveState=activating\nSubState=start\n", StatusRunning, "starting", 0},
		{"auto-restart", "LoadState=loaded\nActiveState=activating\nSubState=auto-restart\nNRestarts=7\n", StatusRestarting, "", 7},
		{"failed", "LoadState=loaded\nActiveState=failed\nSubState=failed\n", StatusStopped, "", 0},
		{"inactive", "LoadState=loaded\nActiveState=inactive\nSubState=dead\n", StatusStopped, "", 0},
		{"not found", "LoadState=not-found\nActiveState=inactive\n", StatusNotFound, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := statusFromShow("relay", parseShow(tt.show))
			if info.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", info.Status, tt.wantStatus)
			}
			if info.Health != tt.wantHealth {
				t.Errorf("Health = %q, want %q", info.Health, tt.wantHealth)
			}
			if info.RestartCount != tt.wantCount {
				t.Errorf("RestartCount = %d, want %d", info.RestartCount, tt.wantCount)
			}
		})
	}

	info := statusFromShow("relay", parseShow(tests[0].show))
	want := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	if !info.StartedAt.Equal(want) {
		t.Errorf("StartedAt = %v, want %v", info.StartedAt, want)
	}
}

func TestSystemdRuntime_Logs(t *testing.T) {
	rt, exec, _ := newTestSystemd(t, true)
	exec.AddResponse("journalctl", []byte("started\n"), nil)

	out, err := rt.Logs(context.Background(), "relay", LogOptions{Lines: 20})
	if err != nil {
		t.Fatal(err)
	}
	if out != "started\n" {
		t.Errorf("Logs = %q", out)
	}
	last, _ := exec.LastCommand()
	if last.String() != "journalctl --user -u conduit-relay.service --no-pager -n 20" {
		t.Errorf("journalctl ran %q", last.String())
	}
}

func TestSystemdRuntime_ListSkipsLegacyUnits(t *testing.T) {
	rt, exec, dir := newTestSystemd(t, false)
	for _, f := range []string{"conduit-relay.service", "conduit-web-docker.service", "sshd.service"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	exec.AddResponse("systemctl show", []byte("LoadState=loaded\nActiveState=active\n"), nil)

	infos, err := rt.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Name != "relay" {
		t.Fatalf("List = %+v, want only relay", infos)
	}
}
