package runtime

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/system"
)

// lookPath and systemdBooted are variables so tests can fake the host.
var (
	lookPath      = system.LookPath
	systemdBooted = func() bool {
		_, err := os.Stat("/run/systemd/system")
		return err == nil
	}
)

// Config holds backend configuration
type Config struct {
	// DockerCommand forces docker or podman; empty auto-detects
	DockerCommand string

	// ContainerPrefix is prepended to conduit names for containers
	ContainerPrefix string

	// UnitPrefix is prepended to conduit names for unit files
	UnitPrefix string

	// UnitDir is where systemd units are installed
	UnitDir string

	// UserUnits selects systemctl --user
	UserUnits bool
}

// DefaultConfig returns the default backend configuration
func DefaultConfig() *Config {
	return ConfigFromHost(config.DefaultHostConfig())
}

// ConfigFromHost derives backend configuration from host configuration.
func ConfigFromHost(h *config.HostConfig) *Config {
	return &Config{
		DockerCommand:   h.DockerCommand,
		ContainerPrefix: h.ContainerPrefix,
		UnitPrefix:      h.UnitPrefix,
		UnitDir:         h.UnitDir,
		UserUnits:       h.UserUnits,
	}
}

// Detect returns the backends whose tooling is present on this host.
func Detect(cfg *Config) []config.Backend {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var available []config.Backend

	if cfg.DockerCommand != "" {
		if lookPath(cfg.DockerCommand) {
			available = append(available, config.BackendDocker)
		}
	} else if detectContainerCommand() != "" {
		available = append(available, config.BackendDocker)
	}

	if lookPath("systemctl") && systemdBooted() {
		available = append(available, config.BackendSystemd)
	}

	logging.Debug("detected backends", "backends", available)
	return available
}

// Set maps each backend to its Runtime.
type Set struct {
	mu       sync.RWMutex
	runtimes map[config.Backend]Runtime
}

// NewSet builds a Set containing every backend detected on this host.
func NewSet(cfg *Config) *Set {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Set{runtimes: make(map[config.Backend]Runtime)}
	for _, b := range Detect(cfg) {
		switch b {
		case config.BackendDocker:
			rt, err := NewDockerRuntime(cfg.DockerCommand, cfg.ContainerPrefix)
			if err != nil {
				logging.Debug("docker backend unavailable", "error", err)
				continue
			}
			s.Add(b, rt)
		case config.BackendSystemd:
			s.Add(b, NewSystemdRuntime(cfg.UnitDir, cfg.UnitPrefix, cfg.UserUnits))
		}
	}
	return s
}

// NewStaticSet builds a Set from explicit runtimes.
func NewStaticSet(runtimes map[config.Backend]Runtime) *Set {
	s := &Set{runtimes: make(map[config.Backend]Runtime, len(runtimes))}
	for b, rt := range runtimes {
		s.runtimes[b] = rt
	}
	return s
}

// Add registers rt for backend b, replacing any previous runtime.
func (s *Set) Add(b config.Backend, rt Runtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runtimes[b] = rt
}

// For returns the runtime for backend b.
func (s *Set) For(b config.Backend) (Runtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rt, ok := s.runtimes[b]; ok {
		return rt, nil
	}
	return nil, errors.BackendUnavailable(string(b), fmt.Errorf("no %s tooling detected on this host", b))
}

// ForConduit returns the runtime responsible for c.
func (s *Set) ForConduit(c *config.Conduit) (Runtime, error) {
	return s.For(c.Backend)
}

// Backends returns the registered backends, sorted.
func (s *Set) Backends() []config.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	backends := make([]config.Backend, 0, len(s.runtimes))
	for b := range s.runtimes {
		backends = append(backends, b)
	}
	sort.Slice(backends, func(i, j int) bool { return backends[i] < backends[j] })
	return backends
}
