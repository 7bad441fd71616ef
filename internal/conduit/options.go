package conduit

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/firefly-engineering/conduit-console/internal/config"
)

// CreateOptions contains options for conduit creation.
type CreateOptions struct {
	Name        string
	Backend     config.Backend
	Description string
	Image       string
	Command     []string
	WorkingDir  string
	Env         map[string]string
	Ports       []config.PortMapping
	Mounts      []config.Mount
	Restart     string
	HealthPort  int

	// Start starts the conduit immediately after creating it.
	Start bool
}

// Instance is the result of a successful creation.
type Instance struct {
	Name       string
	InstanceID string
	Backend    config.Backend
	Conduit    *config.Conduit

	// UnitFile is the installed unit path, empty for container-managed conduits.
	UnitFile string
}

// ParseEnv parses KEY=VALUE pairs.
func ParseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid env %q: expected KEY=VALUE", p)
		}
		if strings.ContainsAny(key, " \t\n") {
			return nil, fmt.Errorf("invalid env key %q", key)
		}
		env[key] = value
	}
	return env, nil
}

// ParsePort parses HOST:CONTAINER, or a single port used for both.
func ParsePort(s string) (config.PortMapping, error) {
	hostPart, containerPart, ok := strings.Cut(s, ":")
	if !ok {
		containerPart = hostPart
	}

	host, err := parsePortNumber(hostPart)
	if err != nil {
		return config.PortMapping{}, fmt.Errorf("invalid port %q: %w", s, err)
	}
	container, err := parsePortNumber(containerPart)
	if err != nil {
		return config.PortMapping{}, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return config.PortMapping{Host: host, Container: container}, nil
}

func parsePortNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("%d out of range 1-65535", n)
	}
	return n, nil
}

// ParseMount parses HOST:CONTAINER[:ro|rw].
func ParseMount(s string) (config.Mount, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return config.Mount{}, fmt.Errorf("invalid mount %q: expected HOST:CONTAINER[:ro]", s)
	}

	m := config.Mount{Host: parts[0], Container: parts[1]}
	if len(parts) == 3 {
		switch parts[2] {
		case "ro":
			m.ReadOnly = true
		case "rw":
		default:
			return config.Mount{}, fmt.Errorf("invalid mount mode %q (must be ro or rw)", parts[2])
		}
	}
	if !filepath.IsAbs(m.Host) || !filepath.IsAbs(m.Container) {
		return config.Mount{}, fmt.Errorf("invalid mount %q: paths must be absolute", s)
	}
	return m, nil
}
