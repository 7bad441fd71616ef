package runtime

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
)

func fakeHost(t *testing.T, binaries map[string]bool, booted bool) {
	t.Helper()
	origLook, origBooted := lookPath, systemdBooted
	t.Cleanup(func() {
		lookPath, systemdBooted = origLook, origBooted
	})
	lookPath = func(name string) bool { return binaries[name] }
	systemdBooted = func() bool { return booted }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ContainerPrefix != "conduit-" {
		t.Errorf("ContainerPrefix = %q, want conduit-", cfg.ContainerPrefix)
	}
	if cfg.UnitDir != config.DefaultUnitDir {
		t.Errorf("UnitDir = %q, want %q", cfg.UnitDir, config.DefaultUnitDir)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		binaries map[string]bool
		booted   bool
		command  string
		want     []config.Backend
	}{
		{"nothing", nil, false, "", nil},
		{"docker only", map[string]bool{"docker": true}, false, "", []config.Backend{config.BackendDocker}},
		{"podman auto", map[string]bool{"podman": true}, false, "", []config.Backend{config.BackendDocker}},
		{"forced podman missing", map[string]bool{"docker": true}, false, "podman", nil},
		{"systemctl not booted", map[string]bool{"systemctl": true}, false, "", nil},
		{"both", map[string]bool{"docker": true, "systemctl": true}, true, "", []config.Backend{config.BackendDocker, config.BackendSystemd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, tt.binaries, tt.booted)
			cfg := DefaultConfig()
			cfg.DockerCommand = tt.command
			if diff := cmp.Diff(tt.want, Detect(cfg)); diff != "" {
				t.Errorf("Detect mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewSet(t *testing.T) {
	fakeHost(t, map[string]bool{"podman": true, "systemctl": true}, true)

	set := NewSet(nil)
	if diff := cmp.Diff([]config.Backend{config.BackendDocker, config.BackendSystemd}, set.Backends()); diff != "" {
		t.Fatalf("Backends mismatch (-want +got):\n%s", diff)
	}

	rt, err := set.For(config.BackendDocker)
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := rt.(*DockerRuntime); !ok || d.Command != "podman" {
		t.Errorf("docker backend = %#v, want podman DockerRuntime", rt)
	}
}

func TestSet_ForMissing(t *testing.T) {
	set := NewStaticSet(map[config.Backend]Runtime{config.BackendDocker: NewMockRuntime()})

	_, err := set.For(config.BackendSystemd)
	if err == nil {
		t.Fatal("expected error for unregistered backend")
	}
	if code := errors.GetExitCode(err); code != errors.ExitBackendUnavailable {
		t.Errorf("exit code = %d, want %d", code, errors.ExitBackendUnavailable)
	}

	c := &config.Conduit{Name: "web", Backend: config.BackendDocker}
	if _, err := set.ForConduit(c); err != nil {
		t.Errorf("ForConduit error: %v", err)
	}
}

func TestGetCapabilities(t *testing.T) {
	if caps := GetCapabilities(&DockerRuntime{}); !caps.EngineRestart || caps.UnitFile {
		t.Errorf("docker capabilities = %+v", caps)
	}
	if caps := GetCapabilities(&SystemdRuntime{}); !caps.UnitFile || caps.EngineRestart {
		t.Errorf("systemd capabilities = %+v", caps)
	}
	if caps := GetCapabilities(NewMockRuntime()); caps != (Capabilities{}) {
		t.Errorf("mock capabilities = %+v, want zero", caps)
	}
}
