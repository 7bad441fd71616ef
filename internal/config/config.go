package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	securejoin "github.com/cyphar/filepath-securejoin"
)

// conduitNameRegex validates conduit names.
// Names start with a lowercase letter or digit, followed by lowercase letters,
// digits, underscores, or hyphens, up to 63 characters (the container name limit).
var conduitNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateConduitName checks if a conduit name is valid.
func ValidateConduitName(name string) error {
	if name == "" {
		return fmt.Errorf("conduit name cannot be empty")
	}

	if !conduitNameRegex.MatchString(name) {
		return fmt.Errorf("invalid conduit name %q: must start with a lowercase letter or digit, contain only lowercase letters, digits, underscores, or hyphens, and be at most 63 characters", name)
	}

	return nil
}

// Backend selects which runtime supervises a conduit.
type Backend string

const (
	BackendDocker  Backend = "docker"
	BackendSystemd Backend = "systemd"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendDocker, BackendSystemd:
		return b, nil
	default:
		return "", fmt.Errorf("unknown backend %q (must be docker or systemd)", s)
	}
}

// Restart policies. Docker accepts all four; systemd units map
// unless-stopped to always.
const (
	RestartNo            = "no"
	RestartOnFailure     = "on-failure"
	RestartAlways        = "always"
	RestartUnlessStopped = "unless-stopped"
)

var validRestart = map[string]bool{
	RestartNo:            true,
	RestartOnFailure:     true,
	RestartAlways:        true,
	RestartUnlessStopped: true,
}

// DefaultRestart returns the restart policy used when none is configured.
func DefaultRestart(b Backend) string {
	if b == BackendDocker {
		return RestartUnlessStopped
	}
	return RestartOnFailure
}

// PortMapping publishes a container port on the loopback interface.
type PortMapping struct {
	Host      int `toml:"host" json:"host" yaml:"host"`
	Container int `toml:"container" json:"container" yaml:"container"`
}

// Mount bind-mounts a host path into a container.
type Mount struct {
	Host      string `toml:"host" json:"host" yaml:"host"`
	Container string `toml:"container" json:"container" yaml:"container"`
	ReadOnly  bool   `toml:"readOnly,omitempty" json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// Conduit is the persisted definition of a supervised unit of work.
type Conduit struct {
	Name        string            `toml:"name" json:"name" yaml:"name"`
	InstanceID  string            `toml:"instanceId" json:"instanceId" yaml:"instanceId"`
	Backend     Backend           `toml:"backend" json:"backend" yaml:"backend"`
	Description string            `toml:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	Image       string            `toml:"image,omitempty" json:"image,omitempty" yaml:"image,omitempty"`
	Command     []string          `toml:"command,omitempty" json:"command,omitempty" yaml:"command,omitempty"`
	WorkingDir  string            `toml:"workingDir,omitempty" json:"workingDir,omitempty" yaml:"workingDir,omitempty"`
	Env         map[string]string `toml:"env,omitempty" json:"env,omitempty" yaml:"env,omitempty"`
	Ports       []PortMapping     `toml:"ports,omitempty" json:"ports,omitempty" yaml:"ports,omitempty"`
	Mounts      []Mount           `toml:"mounts,omitempty" json:"mounts,omitempty" yaml:"mounts,omitempty"`
	Restart     string            `toml:"restart,omitempty" json:"restart,omitempty" yaml:"restart,omitempty"`
	HealthPort  int               `toml:"healthPort,omitempty" json:"healthPort,omitempty" yaml:"healthPort,omitempty"`
	CreatedAt   time.Time         `toml:"createdAt" json:"createdAt" yaml:"createdAt"`
}

// ContainerName returns the runtime-visible name for the conduit.
func (c *Conduit) ContainerName(prefix string) string {
	return prefix + c.Name
}

// UnitName returns the systemd service name for the conduit, or "" when the
// conduit is not supervised by a unit.
func (c *Conduit) UnitName(prefix string) string {
	if !c.ManagesUnitFile() {
		return ""
	}
	return prefix + c.Name + ".service"
}

// ManagesUnitFile reports whether this conduit is supervised through a
// generated systemd unit. Container-backed conduits rely on the engine's
// restart policy instead.
func (c *Conduit) ManagesUnitFile() bool {
	return c.Backend == BackendSystemd
}

// EffectiveRestart returns the configured restart policy or the backend default.
func (c *Conduit) EffectiveRestart() string {
	if c.Restart != "" {
		return c.Restart
	}
	return DefaultRestart(c.Backend)
}

// Validate checks that the Conduit is valid.
func (c *Conduit) Validate() error {
	if err := ValidateConduitName(c.Name); err != nil {
		return err
	}
	if c.InstanceID == "" {
		return fmt.Errorf("instanceId is required")
	}

	switch c.Backend {
	case BackendDocker:
		if c.Image == "" {
			return fmt.Errorf("image is required for docker conduits")
		}
	case BackendSystemd:
		if len(c.Command) == 0 {
			return fmt.Errorf("command is required for systemd conduits")
		}
		if len(c.Ports) > 0 {
			return fmt.Errorf("ports are only supported for docker conduits")
		}
		if len(c.Mounts) > 0 {
			return fmt.Errorf("mounts are only supported for docker conduits")
		}
		if !filepath.IsAbs(c.Command[0]) {
			return fmt.Errorf("systemd command must start with an absolute path (got %q)", c.Command[0])
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.WorkingDir != "" && !filepath.IsAbs(c.WorkingDir) {
		return fmt.Errorf("workingDir must be an absolute path (got %q)", c.WorkingDir)
	}

	for k := range c.Env {
		if k == "" || strings.ContainsAny(k, "= \t\n") {
			return fmt.Errorf("invalid environment variable name %q", k)
		}
	}

	for _, p := range c.Ports {
		if p.Host < 1 || p.Host > 65535 || p.Container < 1 || p.Container > 65535 {
			return fmt.Errorf("port mapping %d:%d out of range (1-65535)", p.Host, p.Container)
		}
	}

	for _, m := range c.Mounts {
		if !filepath.IsAbs(m.Host) || !filepath.IsAbs(m.Container) {
			return fmt.Errorf("mount %s:%s must use absolute paths", m.Host, m.Container)
		}
	}

	if c.Restart != "" && !validRestart[c.Restart] {
		return fmt.Errorf("invalid restart policy %q (must be no, on-failure, always, or unless-stopped)", c.Restart)
	}

	if c.HealthPort < 0 || c.HealthPort > 65535 {
		return fmt.Errorf("healthPort must be between 0 and 65535 (got %d)", c.HealthPort)
	}

	return nil
}

// conduitPath resolves the metadata file for name inside dir. The name is
// validated first so separators and dot segments never reach the join.
func conduitPath(dir, name string) (string, error) {
	if err := ValidateConduitName(name); err != nil {
		return "", err
	}
	return securejoin.SecureJoin(dir, name+".toml")
}

// LoadConduit loads metadata for a conduit
func LoadConduit(conduitsDir, name string) (*Conduit, error) {
	path, err := conduitPath(conduitsDir, name)
	if err != nil {
		return nil, fmt.Errorf("invalid conduit name: %w", err)
	}

	var c Conduit
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("conduit not found: %s", name)
		}
		return nil, fmt.Errorf("failed to parse conduit %s: %w", name, err)
	}

	if c.Name == "" {
		c.Name = name
	}
	if c.Name != name {
		return nil, fmt.Errorf("conduit file %s.toml declares name %q", name, c.Name)
	}

	return &c, nil
}

// SaveConduit validates and writes conduit metadata
func SaveConduit(conduitsDir string, c *Conduit) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid conduit: %w", err)
	}

	if err := os.MkdirAll(conduitsDir, 0755); err != nil {
		return fmt.Errorf("failed to create conduits directory: %w", err)
	}

	path, err := conduitPath(conduitsDir, c.Name)
	if err != nil {
		return fmt.Errorf("invalid conduit name: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode conduit: %w", err)
	}

	// Write then rename so a concurrent dashboard refresh never reads a torn file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write conduit: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write conduit: %w", err)
	}

	return nil
}

// DeleteConduit removes metadata for a conduit
func DeleteConduit(conduitsDir, name string) error {
	path, err := conduitPath(conduitsDir, name)
	if err != nil {
		return fmt.Errorf("invalid conduit name: %w", err)
	}
	return os.Remove(path)
}

// ConduitExists checks if a conduit exists
func ConduitExists(conduitsDir, name string) bool {
	path, err := conduitPath(conduitsDir, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ListConduits returns all conduit metadata sorted by name. Unreadable or
// misnamed files are skipped.
func ListConduits(conduitsDir string) ([]*Conduit, error) {
	entries, err := os.ReadDir(conduitsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read conduits directory: %w", err)
	}

	var conduits []*Conduit
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".toml")
		c, err := LoadConduit(conduitsDir, name)
		if err != nil {
			continue
		}
		conduits = append(conduits, c)
	}

	sort.Slice(conduits, func(i, j int) bool {
		return conduits[i].Name < conduits[j].Name
	})

	return conduits, nil
}
