package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/system"
)

// Labels attached to every conduit container.
const (
	LabelManaged  = "conduit-console.managed"
	LabelInstance = "conduit-console.instance"
	LabelName     = "conduit-console.name"
)

// DockerRuntime implements the Runtime interface using Docker or Podman.
// Supervision is left to the engine's restart policy; this runtime never
// writes systemd units.
type DockerRuntime struct {
	// Command is the container command to use (docker or podman)
	Command string

	// ContainerPrefix is prepended to conduit names to form container names
	ContainerPrefix string

	exec system.CommandExecutor
}

// NewDockerRuntime creates a new Docker/Podman runtime. An empty command
// auto-detects docker, then podman.
func NewDockerRuntime(command, containerPrefix string) (*DockerRuntime, error) {
	if command == "" {
		command = detectContainerCommand()
	}
	if command == "" {
		return nil, fmt.Errorf("neither docker nor podman found in PATH")
	}
	return &DockerRuntime{
		Command:         command,
		ContainerPrefix: containerPrefix,
		exec:            system.DefaultExecutor(),
	}, nil
}

// NewDockerRuntimeWithExecutor creates a runtime that runs commands through exec.
func NewDockerRuntimeWithExecutor(command, containerPrefix string, exec system.CommandExecutor) *DockerRuntime {
	return &DockerRuntime{Command: command, ContainerPrefix: containerPrefix, exec: exec}
}

func detectContainerCommand() string {
	for _, c := range []string{"docker", "podman"} {
		if lookPath(c) {
			return c
		}
	}
	return ""
}

func (r *DockerRuntime) containerName(name string) string {
	return r.ContainerPrefix + name
}

// Name returns the runtime identifier
func (r *DockerRuntime) Name() string {
	return string(config.BackendDocker)
}

// Capabilities describes the container backend.
func (r *DockerRuntime) Capabilities() Capabilities {
	return Capabilities{
		EngineRestart: true,
		PortMapping:   true,
		Mounts:        true,
		HealthStatus:  true,
		FollowLogs:    true,
	}
}

func (r *DockerRuntime) runCmd(ctx context.Context, args ...string) (string, error) {
	out, err := r.exec.Execute(ctx, r.Command, args...)
	if err != nil {
		return string(out), fmt.Errorf("%s %s failed: %s: %w", r.Command, args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

func isNoSuchContainer(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such container") || strings.Contains(msg, "no such object")
}

// createArgs builds the "create" invocation for a conduit.
func (r *DockerRuntime) createArgs(c *config.Conduit) []string {
	args := []string{
		"create",
		"--name", r.containerName(c.Name),
		"--restart", c.EffectiveRestart(),
		"--label", LabelManaged + "=true",
		"--label", LabelInstance + "=" + c.InstanceID,
		"--label", LabelName + "=" + c.Name,
	}

	if c.WorkingDir != "" {
		args = append(args, "-w", c.WorkingDir)
	}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+c.Env[k])
	}

	for _, p := range c.Ports {
		args = append(args, "-p", fmt.Sprintf("127.0.0.1:%d:%d", p.Host, p.Container))
	}

	for _, m := range c.Mounts {
		spec := m.Host + ":" + m.Container
		if m.ReadOnly {
			spec += ":ro"
		}
		args = append(args, "-v", spec)
	}

	args = append(args, c.Image)
	return append(args, c.Command...)
}

// Create creates the container and optionally starts it.
func (r *DockerRuntime) Create(ctx context.Context, opts CreateOptions) error {
	c := opts.Conduit
	if c == nil {
		return fmt.Errorf("create: conduit is required")
	}
	if c.Backend != config.BackendDocker {
		return fmt.Errorf("create: conduit %s uses backend %s", c.Name, c.Backend)
	}

	logging.Debug("creating container", "name", r.containerName(c.Name), "runtime", r.Command, "image", c.Image)

	if _, err := r.runCmd(ctx, r.createArgs(c)...); err != nil {
		return err
	}

	if opts.Start {
		return r.Start(ctx, c.Name)
	}
	return nil
}

// Start starts an existing container
func (r *DockerRuntime) Start(ctx context.Context, name string) error {
	containerName := r.containerName(name)
	logging.Debug("starting container", "container", containerName)

	_, err := r.runCmd(ctx, "start", containerName)
	return err
}

// Stop stops a running container
func (r *DockerRuntime) Stop(ctx context.Context, name string) error {
	containerName := r.containerName(name)
	logging.Debug("stopping container", "container", containerName)

	_, err := r.runCmd(ctx, "stop", containerName)
	return err
}

// GracefulStop stops the container, letting the engine kill it after timeout.
func (r *DockerRuntime) GracefulStop(ctx context.Context, name string, timeout time.Duration) error {
	containerName := r.containerName(name)
	secs := int(timeout.Round(time.Second) / time.Second)
	logging.Debug("stopping container", "container", containerName, "timeout", secs)

	_, err := r.runCmd(ctx, "stop", "-t", strconv.Itoa(secs), containerName)
	return err
}

// Destroy stops and removes a container
func (r *DockerRuntime) Destroy(ctx context.Context, name string) error {
	containerName := r.containerName(name)
	logging.Debug("destroying container", "container", containerName)

	_, err := r.runCmd(ctx, "rm", "-f", containerName)
	if err != nil && isNoSuchContainer(err) {
		return nil
	}
	return err
}

// IsRunning checks if a container is currently running
func (r *DockerRuntime) IsRunning(ctx context.Context, name string) (bool, error) {
	output, err := r.runCmd(ctx, "inspect", "-f", "{{.State.Running}}", r.containerName(name))
	if err != nil {
		if isNoSuchContainer(err) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(output) == "true", nil
}

// dockerInspect holds the relevant fields from docker inspect
type dockerInspect struct {
	State struct {
		Status     string `json:"Status"`
		Running    bool   `json:"Running"`
		Restarting bool   `json:"Restarting"`
		StartedAt  string `json:"StartedAt"`
		Health     *struct {
			Status string `json:"Status"`
		} `json:"Health"`
	} `json:"State"`
	RestartCount int `json:"RestartCount"`
	Config       struct {
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

// parseInspect converts inspect JSON into ContainerInfo.
func parseInspect(name string, output []byte) (*ContainerInfo, error) {
	var inspects []dockerInspect
	if err := json.Unmarshal(output, &inspects); err != nil {
		return nil, fmt.Errorf("failed to parse inspect output: %w", err)
	}

	info := &ContainerInfo{Name: name, Status: StatusNotFound}
	if len(inspects) == 0 {
		return info, nil
	}

	inspect := inspects[0]
	switch {
	case inspect.State.Restarting || inspect.State.Status == "restarting":
		info.Status = StatusRestarting
	case inspect.State.Running || inspect.State.Status == "running":
		info.Status = StatusRunning
	case inspect.State.Status == "exited", inspect.State.Status == "created",
		inspect.State.Status == "stopped", inspect.State.Status == "dead",
		inspect.State.Status == "paused":
		info.Status = StatusStopped
	default:
		info.Status = StatusUnknown
	}

	if inspect.State.Health != nil {
		info.Health = inspect.State.Health.Status
	}
	if t, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt); err == nil && t.Year() > 1 {
		info.StartedAt = t
	}
	info.RestartCount = inspect.RestartCount
	info.InstanceID = inspect.Config.Labels[LabelInstance]

	return info, nil
}

// Status returns detailed status of a container
func (r *DockerRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	output, err := r.runCmd(ctx, "inspect", r.containerName(name))
	if err != nil {
		if isNoSuchContainer(err) {
			return &ContainerInfo{Name: name, Status: StatusNotFound}, nil
		}
		return &ContainerInfo{Name: name, Status: StatusUnknown}, err
	}
	return parseInspect(name, []byte(output))
}

// Logs returns the trailing output of the container.
func (r *DockerRuntime) Logs(ctx context.Context, name string, opts LogOptions) (string, error) {
	args := []string{"logs"}
	if opts.Lines > 0 {
		args = append(args, "--tail", strconv.Itoa(opts.Lines))
	}
	if opts.Follow {
		args = append(args, "-f", r.containerName(name))
		return "", r.exec.ExecuteInteractive(ctx, r.Command, args...)
	}
	args = append(args, r.containerName(name))
	return r.runCmd(ctx, args...)
}

// List returns all containers labelled as conduits.
func (r *DockerRuntime) List(ctx context.Context) ([]*ContainerInfo, error) {
	output, err := r.runCmd(ctx, "ps", "-a", "--format", "{{.Names}}", "--filter", "label="+LabelManaged+"=true")
	if err != nil {
		return nil, err
	}

	var containers []*ContainerInfo
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" || !strings.HasPrefix(line, r.ContainerPrefix) {
			continue
		}

		name := strings.TrimPrefix(line, r.ContainerPrefix)
		info, err := r.Status(ctx, name)
		if err != nil {
			logging.Debug("failed to inspect container", "container", line, "error", err)
			continue
		}
		containers = append(containers, info)
	}

	return containers, nil
}

var (
	_ Runtime         = (*DockerRuntime)(nil)
	_ GracefulStopper = (*DockerRuntime)(nil)
	_ CapableRuntime  = (*DockerRuntime)(nil)
)
