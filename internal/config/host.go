package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/viper"
)

// HostConfig holds host-wide settings from <configDir>/config.toml.
// Every key can be overridden by an environment variable, e.g.
// CONDUIT_UNIT_DIR or CONDUIT_REFRESH_INTERVAL.
type HostConfig struct {
	ContainerPrefix string        `mapstructure:"containerPrefix"`
	UnitPrefix      string        `mapstructure:"unitPrefix"`
	UnitDir         string        `mapstructure:"unitDir"`
	UserUnits       bool          `mapstructure:"userUnits"`
	DockerCommand   string        `mapstructure:"dockerCommand"`
	StateDir        string        `mapstructure:"stateDir"`
	LogLevel        string        `mapstructure:"logLevel"`
	RefreshInterval time.Duration `mapstructure:"refreshInterval"`
	MonitorInterval time.Duration `mapstructure:"monitorInterval"`
}

var prefixRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,30}$`)

// hostEnv maps config keys to their environment variables.
var hostEnv = map[string]string{
	"containerPrefix": "CONDUIT_CONTAINER_PREFIX",
	"unitPrefix":      "CONDUIT_UNIT_PREFIX",
	"unitDir":         "CONDUIT_UNIT_DIR",
	"userUnits":       "CONDUIT_USER_UNITS",
	"dockerCommand":   "CONDUIT_DOCKER_COMMAND",
	"stateDir":        "CONDUIT_STATE_DIR",
	"logLevel":        "CONDUIT_LOG_LEVEL",
	"refreshInterval": "CONDUIT_REFRESH_INTERVAL",
	"monitorInterval": "CONDUIT_MONITOR_INTERVAL",
}

// DefaultHostConfig returns the configuration used when no file exists.
func DefaultHostConfig() *HostConfig {
	return &HostConfig{
		ContainerPrefix: ContainerPrefix,
		UnitPrefix:      UnitPrefix,
		UnitDir:         DefaultUnitDir,
		LogLevel:        "info",
		RefreshInterval: 2 * time.Second,
		MonitorInterval: 60 * time.Second,
	}
}

// Validate checks that the HostConfig is valid.
func (c *HostConfig) Validate() error {
	if !prefixRegex.MatchString(c.ContainerPrefix) {
		return fmt.Errorf("invalid containerPrefix %q", c.ContainerPrefix)
	}
	if !prefixRegex.MatchString(c.UnitPrefix) {
		return fmt.Errorf("invalid unitPrefix %q", c.UnitPrefix)
	}
	if !filepath.IsAbs(c.UnitDir) {
		return fmt.Errorf("unitDir must be an absolute path (got %q)", c.UnitDir)
	}
	if c.StateDir != "" && !filepath.IsAbs(c.StateDir) {
		return fmt.Errorf("stateDir must be an absolute path (got %q)", c.StateDir)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refreshInterval must be positive (got %s)", c.RefreshInterval)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitorInterval must be positive (got %s)", c.MonitorInterval)
	}
	switch c.DockerCommand {
	case "", "docker", "podman":
	default:
		return fmt.Errorf("dockerCommand must be docker or podman (got %q)", c.DockerCommand)
	}
	return nil
}

// LoadHostConfig reads config.toml from configDir. A missing file is not an
// error: defaults and environment overrides still apply.
func LoadHostConfig(configDir string) (*HostConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	defaults := DefaultHostConfig()
	v.SetDefault("containerPrefix", defaults.ContainerPrefix)
	v.SetDefault("unitPrefix", defaults.UnitPrefix)
	v.SetDefault("unitDir", defaults.UnitDir)
	v.SetDefault("userUnits", defaults.UserUnits)
	v.SetDefault("dockerCommand", defaults.DockerCommand)
	v.SetDefault("stateDir", defaults.StateDir)
	v.SetDefault("logLevel", defaults.LogLevel)
	v.SetDefault("refreshInterval", defaults.RefreshInterval)
	v.SetDefault("monitorInterval", defaults.MonitorInterval)

	for key, env := range hostEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read host config: %w", err)
		}
	}

	var cfg HostConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse host config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid host config: %w", err)
	}

	return &cfg, nil
}
