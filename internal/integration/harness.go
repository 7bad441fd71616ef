package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/conduit"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

// EnvIntegration enables the integration tests when set to "1".
const EnvIntegration = "CONDUIT_INTEGRATION_TESTS"

// containerPrefix keeps test containers apart from real conduits.
const containerPrefix = "conduit-it-"

// TestHarness provides utilities for integration testing with a real engine.
type TestHarness struct {
	t        *testing.T
	app      *app.App
	docker   *runtime.DockerRuntime
	conduits []*config.Conduit
}

// NewHarness creates a harness backed by the detected docker/podman CLI.
// It skips the test when integration tests are disabled or no engine responds.
func NewHarness(t *testing.T) *TestHarness {
	t.Helper()

	if os.Getenv(EnvIntegration) != "1" {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnvIntegration)
	}

	docker, err := runtime.NewDockerRuntime("", containerPrefix)
	if err != nil {
		t.Skipf("docker runtime not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := docker.List(ctx); err != nil {
		t.Skipf("container engine not responsive: %v", err)
	}

	tmpDir := t.TempDir()
	paths := config.NewPaths(
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "state"),
		filepath.Join(tmpDir, "units"),
	)
	for _, dir := range []string{paths.ConfigDir, paths.ConduitsDir, paths.EventsDir, paths.UnitDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	host := config.DefaultHostConfig()
	host.ContainerPrefix = containerPrefix
	host.UnitDir = paths.UnitDir
	host.StateDir = paths.StateDir

	h := &TestHarness{
		t:      t,
		docker: docker,
		app: app.New(
			app.WithPaths(paths),
			app.WithHostConfig(host),
			app.WithRuntime(config.BackendDocker, docker),
		),
	}

	t.Cleanup(h.Cleanup)
	return h
}

// App returns the application wired to the real docker runtime.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Docker returns the real docker runtime.
func (h *TestHarness) Docker() *runtime.DockerRuntime {
	return h.docker
}

// Create creates a conduit and tracks it for cleanup.
func (h *TestHarness) Create(ctx context.Context, opts conduit.CreateOptions) *conduit.Instance {
	h.t.Helper()

	// Leftovers from an aborted run would fail the duplicate check in the engine.
	_ = h.docker.Destroy(ctx, opts.Name)

	inst, err := conduit.NewCreator(h.app).Create(ctx, opts)
	if err != nil {
		h.t.Fatalf("Create(%s) failed: %v", opts.Name, err)
	}
	h.conduits = append(h.conduits, inst.Conduit)
	return inst
}

// WaitRunning polls until the conduit's container is running.
func (h *TestHarness) WaitRunning(ctx context.Context, name string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if running, err := h.docker.IsRunning(ctx, name); err == nil && running {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Cleanup destroys every tracked conduit.
func (h *TestHarness) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, c := range h.conduits {
		err := conduit.Cleanup(ctx, c, h.app.Paths, conduit.DefaultCleanupOptions(), h.docker, h.app.UnitWriter())
		if err != nil {
			h.t.Logf("Warning: failed to clean up conduit %s: %v", c.Name, err)
		}
	}
}
