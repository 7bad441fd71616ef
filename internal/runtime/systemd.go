package runtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/system"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

// SystemdRuntime runs conduits as host processes supervised by generated
// service units.
type SystemdRuntime struct {
	// Units writes unit files into the unit directory
	Units *unit.Writer

	// UserUnits selects the per-user service manager (systemctl --user)
	UserUnits bool

	exec system.CommandExecutor
}

// NewSystemdRuntime creates a runtime that installs units into unitDir.
func NewSystemdRuntime(unitDir, unitPrefix string, userUnits bool) *SystemdRuntime {
	return &SystemdRuntime{
		Units:     unit.NewWriter(unitDir, unitPrefix),
		UserUnits: userUnits,
		exec:      system.DefaultExecutor(),
	}
}

// NewSystemdRuntimeWithExecutor creates a runtime that runs commands through exec.
func NewSystemdRuntimeWithExecutor(units *unit.Writer, userUnits bool, exec system.CommandExecutor) *SystemdRuntime {
	return &SystemdRuntime{Units: units, UserUnits: userUnits, exec: exec}
}

// Name returns the runtime identifier
func (r *SystemdRuntime) Name() string {
	return string(config.BackendSystemd)
}

// Capabilities describes the systemd backend.
func (r *SystemdRuntime) Capabilities() Capabilities {
	return Capabilities{
		UnitFile:   true,
		FollowLogs: true,
	}
}

func (r *SystemdRuntime) unitName(name string) string {
	return r.Units.Prefix + name + unit.Suffix
}

func (r *SystemdRuntime) scope(args []string) []string {
	if r.UserUnits {
		return append([]string{"--user"}, args...)
	}
	return args
}

func (r *SystemdRuntime) systemctl(ctx context.Context, args ...string) (string, error) {
	args = r.scope(args)
	out, err := r.exec.Execute(ctx, "systemctl", args...)
	if err != nil {
		return string(out), fmt.Errorf("systemctl %s failed: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

// Create installs the unit, reloads the manager and enables the unit.
// With Start set the unit is also started.
func (r *SystemdRuntime) Create(ctx context.Context, opts CreateOptions) error {
	c := opts.Conduit
	if c == nil {
		return fmt.Errorf("create: conduit is required")
	}

	path, err := r.Units.Install(c, unit.Options{UserUnit: r.UserUnits})
	if err != nil {
		return err
	}
	logging.Debug("installed unit", "path", path)

	if _, err := r.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}

	args := []string{"enable"}
	if opts.Start {
		args = append(args, "--now")
	}
	_, err = r.systemctl(ctx, append(args, r.unitName(c.Name))...)
	return err
}

// Start starts the unit
func (r *SystemdRuntime) Start(ctx context.Context, name string) error {
	logging.Debug("starting unit", "unit", r.unitName(name))
	_, err := r.systemctl(ctx, "start", r.unitName(name))
	return err
}

// Stop stops the unit
func (r *SystemdRuntime) Stop(ctx context.Context, name string) error {
	logging.Debug("stopping unit", "unit", r.unitName(name))
	_, err := r.systemctl(ctx, "stop", r.unitName(name))
	return err
}

// Destroy disables and stops the unit, then removes its file.
func (r *SystemdRuntime) Destroy(ctx context.Context, name string) error {
	logging.Debug("destroying unit", "unit", r.unitName(name))
	return r.RemoveUnits(ctx, r.unitName(name))
}

// RemoveUnits disables and stops each present unit, deletes the files and
// reloads the manager once. A failed disable is logged and the file is
// still removed.
func (r *SystemdRuntime) RemoveUnits(ctx context.Context, files ...string) error {
	var errs []error
	for _, file := range files {
		if r.Units.Exists(file) {
			if _, err := r.systemctl(ctx, "disable", "--now", file); err != nil {
				logging.Warn("failed to disable unit", "unit", file, "error", err)
			}
		}
		if err := r.Units.Remove(file); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := r.systemctl(ctx, "daemon-reload"); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IsRunning checks if the unit is active
func (r *SystemdRuntime) IsRunning(ctx context.Context, name string) (bool, error) {
	info, err := r.Status(ctx, name)
	if err != nil {
		return false, err
	}
	return info.Status == StatusRunning, nil
}

// parseShow parses "Key=Value" lines from systemctl show.
func parseShow(output string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok {
			props[k] = v
		}
	}
	return props
}

// systemdTimestamp parses the ExecMainStartTimestamp format,
// e.g. "Mon 2026-01-05 10:00:00 UTC".
func systemdTimestamp(s string) time.Time {
	for _, layout := range []string{"Mon 2006-01-02 15:04:05 MST", "Mon 2006-01-02 15:04:05 -0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func statusFromShow(name string, props map[string]string) *ContainerInfo {
	info := &ContainerInfo{Name: name, Status: StatusUnknown}

	if props["LoadState"] == "not-found" {
		info.Status = StatusNotFound
		return info
	}

	switch props["ActiveState"] {
	case "active", "reloading":
		info.Status = StatusRunning
	case "activating":
		if props["SubState"] == "auto-restart" {
			info.Status = StatusRestarting
		} else {
			info.Status = StatusRunning
			info.Health = "starting"
		}
	case "inactive", "failed", "deactivating":
		info.Status = StatusStopped
	}

	if n, err := strconv.Atoi(props["NRestarts"]); err == nil {
		info.RestartCount = n
	}
	if info.Status == StatusRunning {
		info.StartedAt = systemdTimestamp(props["ExecMainStartTimestamp"])
	}
	return info
}

// Status returns the unit's state from systemctl show.
func (r *SystemdRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	output, err := r.systemctl(ctx, "show",
		"-p", "LoadState,ActiveState,SubState,ExecMainStartTimestamp,NRestarts",
		r.unitName(name))
	if err != nil {
		return &ContainerInfo{Name: name, Status: StatusUnknown}, err
	}
	return statusFromShow(name, parseShow(output)), nil
}

// Logs returns journal output for the unit.
func (r *SystemdRuntime) Logs(ctx context.Context, name string, opts LogOptions) (string, error) {
	args := []string{"-u", r.unitName(name), "--no-pager"}
	if opts.Lines > 0 {
		args = append(args, "-n", strconv.Itoa(opts.Lines))
	}
	args = r.scope(args)

	if opts.Follow {
		return "", r.exec.ExecuteInteractive(ctx, "journalctl", append(args, "-f")...)
	}
	out, err := r.exec.Execute(ctx, "journalctl", args...)
	if err != nil {
		return "", fmt.Errorf("journalctl failed: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

// List returns the conduits that have a unit file installed. Legacy
// container-wrapping units are not conduits of this backend.
func (r *SystemdRuntime) List(ctx context.Context) ([]*ContainerInfo, error) {
	files, err := r.Units.List()
	if err != nil {
		return nil, err
	}

	var infos []*ContainerInfo
	for _, f := range files {
		if unit.IsLegacyDockerUnit(f) {
			continue
		}
		name, ok := unit.ConduitName(r.Units.Prefix, f)
		if !ok {
			continue
		}
		info, err := r.Status(ctx, name)
		if err != nil {
			logging.Debug("failed to query unit", "unit", f, "error", err)
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

var (
	_ Runtime        = (*SystemdRuntime)(nil)
	_ CapableRuntime = (*SystemdRuntime)(nil)
	_ UnitRemover    = (*SystemdRuntime)(nil)
)
