// Package testutil provides test utilities for integration tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

// TestEnv holds the test environment
type TestEnv struct {
	T             *testing.T
	TmpDir        string
	Paths         *config.Paths
	HostConfig    *config.HostConfig
	DockerRuntime *runtime.MockRuntime
	UnitRuntime   *runtime.MockRuntime
	App           *app.App
	cleanup       func()
}

// NewTestEnv creates a new test environment with mock runtimes for both
// backends and installs it as app.Default.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()

	paths := config.NewPaths(
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "state"),
		filepath.Join(tmpDir, "units"),
	)

	for _, dir := range []string{
		paths.ConfigDir,
		paths.StateDir,
		paths.ConduitsDir,
		paths.EventsDir,
		paths.UnitDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	hostConfig := config.DefaultHostConfig()
	hostConfig.UnitDir = paths.UnitDir
	hostConfig.StateDir = paths.StateDir
	hostConfig.RefreshInterval = 20 * time.Millisecond

	dockerRuntime := runtime.NewMockRuntime()
	dockerRuntime.RuntimeName = string(config.BackendDocker)
	unitRuntime := runtime.NewMockRuntime()
	unitRuntime.RuntimeName = string(config.BackendSystemd)

	testApp := app.New(
		app.WithPaths(paths),
		app.WithHostConfig(hostConfig),
		app.WithRuntime(config.BackendDocker, dockerRuntime),
		app.WithRuntime(config.BackendSystemd, unitRuntime),
	)

	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:             t,
		TmpDir:        tmpDir,
		Paths:         paths,
		HostConfig:    hostConfig,
		DockerRuntime: dockerRuntime,
		UnitRuntime:   unitRuntime,
		App:           testApp,
		cleanup: func() {
			app.ResetDefault()
			app.Default = originalDefault
		},
	}

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// AddConduit saves a conduit and registers it with the matching mock
// runtime in the given state. StatusNotFound registers nothing.
func (e *TestEnv) AddConduit(c *config.Conduit, status runtime.ContainerStatus) {
	e.T.Helper()

	if c.InstanceID == "" {
		c.InstanceID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if err := config.SaveConduit(e.Paths.ConduitsDir, c); err != nil {
		e.T.Fatalf("Failed to save conduit: %v", err)
	}

	if status != runtime.StatusNotFound {
		e.RuntimeFor(c.Backend).AddContainer(c.Name, status)
	}
}

// RuntimeFor returns the mock runtime for a backend.
func (e *TestEnv) RuntimeFor(b config.Backend) *runtime.MockRuntime {
	if b == config.BackendSystemd {
		return e.UnitRuntime
	}
	return e.DockerRuntime
}

// GetConduit loads a conduit, returning nil if it does not exist
func (e *TestEnv) GetConduit(name string) *config.Conduit {
	e.T.Helper()

	c, err := config.LoadConduit(e.Paths.ConduitsDir, name)
	if err != nil {
		return nil
	}
	return c
}

// ConduitExists checks if a conduit exists
func (e *TestEnv) ConduitExists(name string) bool {
	return config.ConduitExists(e.Paths.ConduitsDir, name)
}

// UnitFiles returns the names of all files in the unit directory.
func (e *TestEnv) UnitFiles() []string {
	e.T.Helper()

	entries, err := os.ReadDir(e.Paths.UnitDir)
	if err != nil {
		e.T.Fatalf("Failed to read unit dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// WriteUnitFile drops a file into the unit directory.
func (e *TestEnv) WriteUnitFile(name, content string) string {
	e.T.Helper()

	path := filepath.Join(e.Paths.UnitDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.T.Fatalf("Failed to write unit file: %v", err)
	}
	return path
}

// DockerConduit returns a minimal valid docker-backed conduit.
func DockerConduit(name string) *config.Conduit {
	return &config.Conduit{
		Name:    name,
		Backend: config.BackendDocker,
		Image:   "nginx:1.27",
	}
}

// SystemdConduit returns a minimal valid systemd-backed conduit.
func SystemdConduit(name string) *config.Conduit {
	return &config.Conduit{
		Name:    name,
		Backend: config.BackendSystemd,
		Command: []string{"/usr/bin/sleep", "infinity"},
	}
}
