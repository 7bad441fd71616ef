package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir = "/etc/conduit-console"
	DefaultStateDir  = "/var/lib/conduit-console"
	DefaultUnitDir   = "/etc/systemd/system"
	ContainerPrefix  = "conduit-"
	UnitPrefix       = "conduit-"

	// EnvConfigDir and EnvStateDir override the default directories.
	EnvConfigDir = "CONDUIT_CONFIG_DIR"
	EnvStateDir  = "CONDUIT_STATE_DIR"
)

// Paths holds the configured paths
type Paths struct {
	ConfigDir   string
	StateDir    string
	ConduitsDir string
	EventsDir   string
	UnitDir     string
}

// NewPaths derives the state subdirectories from stateDir.
func NewPaths(configDir, stateDir, unitDir string) *Paths {
	return &Paths{
		ConfigDir:   configDir,
		StateDir:    stateDir,
		ConduitsDir: filepath.Join(stateDir, "conduits"),
		EventsDir:   filepath.Join(stateDir, "events"),
		UnitDir:     unitDir,
	}
}

// DefaultPaths returns the default path configuration, honoring
// CONDUIT_CONFIG_DIR and CONDUIT_STATE_DIR.
func DefaultPaths() *Paths {
	configDir := DefaultConfigDir
	if v := os.Getenv(EnvConfigDir); v != "" {
		configDir = v
	}
	stateDir := DefaultStateDir
	if v := os.Getenv(EnvStateDir); v != "" {
		stateDir = v
	}
	return NewPaths(configDir, stateDir, DefaultUnitDir)
}

// ResolvePaths combines explicit overrides with the host config. Empty
// overrides fall through to the host config and then to the defaults.
func ResolvePaths(configDir, stateDir string, host *HostConfig) *Paths {
	p := DefaultPaths()
	if configDir != "" {
		p.ConfigDir = configDir
	}

	unitDir := p.UnitDir
	if host != nil {
		if stateDir == "" && host.StateDir != "" && os.Getenv(EnvStateDir) == "" {
			stateDir = host.StateDir
		}
		if host.UnitDir != "" {
			unitDir = host.UnitDir
		}
	}
	if stateDir == "" {
		stateDir = p.StateDir
	}

	return NewPaths(p.ConfigDir, stateDir, unitDir)
}
