package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

// Status represents the health status of a conduit
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusStarting  Status = "starting"
	StatusStopped   Status = "stopped"
	StatusMissing   Status = "missing"
)

// ProbeState is the outcome of the TCP health probe.
type ProbeState string

const (
	ProbeSkipped ProbeState = ""
	ProbeOK      ProbeState = "ok"
	ProbeFailed  ProbeState = "failed"
)

const (
	// DefaultProbeTimeout bounds a single TCP probe.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultStartGrace is how long a failing probe counts as starting
	// rather than unhealthy after the conduit started.
	DefaultStartGrace = 15 * time.Second
)

// CheckResult contains the results of health checks
type CheckResult struct {
	Conduit      string         `json:"conduit" yaml:"conduit"`
	Backend      config.Backend `json:"backend" yaml:"backend"`
	InstanceID   string         `json:"instanceId" yaml:"instanceId"`
	Running      bool           `json:"running" yaml:"running"`
	Restarting   bool           `json:"restarting" yaml:"restarting"`
	RestartCount int            `json:"restartCount" yaml:"restartCount"`
	NativeHealth string         `json:"nativeHealth,omitempty" yaml:"nativeHealth,omitempty"`
	HealthProbe  ProbeState     `json:"healthProbe,omitempty" yaml:"healthProbe,omitempty"`
	Uptime       string         `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Status       Status         `json:"status" yaml:"status"`
	Error        string         `json:"error,omitempty" yaml:"error,omitempty"`
	CheckedAt    time.Time      `json:"checkedAt" yaml:"checkedAt"`
}

// Checker performs health checks. The zero value uses net.Dialer and the
// default timeouts.
type Checker struct {
	ProbeTimeout time.Duration
	StartGrace   time.Duration

	// Dial replaces the TCP dialer in tests
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	// Now replaces time.Now in tests
	Now func() time.Time
}

var defaultChecker = &Checker{}

// Check performs all health checks for a conduit using the default Checker.
func Check(ctx context.Context, c *config.Conduit, rt runtime.Runtime) *CheckResult {
	return defaultChecker.Check(ctx, c, rt)
}

func (k *Checker) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}

// Probe dials 127.0.0.1:port and reports whether a connection was accepted.
func (k *Checker) Probe(ctx context.Context, port int) bool {
	timeout := k.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dial := k.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}

	conn, err := dial(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Check performs all health checks for a conduit.
// The rt parameter is optional; if nil the conduit is reported unhealthy.
func (k *Checker) Check(ctx context.Context, c *config.Conduit, rt runtime.Runtime) *CheckResult {
	result := &CheckResult{
		Conduit:    c.Name,
		Backend:    c.Backend,
		InstanceID: c.InstanceID,
		CheckedAt:  k.now(),
	}

	if rt == nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("no runtime for backend %s", c.Backend)
		return result
	}

	info, err := rt.Status(ctx, c.Name)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}

	result.RestartCount = info.RestartCount
	result.NativeHealth = info.Health

	switch info.Status {
	case runtime.StatusNotFound:
		result.Status = StatusMissing
		return result
	case runtime.StatusRestarting:
		result.Restarting = true
		result.Status = StatusUnhealthy
		return result
	case runtime.StatusRunning:
		result.Running = true
	default:
		result.Status = StatusStopped
		return result
	}

	var age time.Duration
	if !info.StartedAt.IsZero() {
		age = result.CheckedAt.Sub(info.StartedAt)
		result.Uptime = formatDuration(age)
	}

	if c.HealthPort > 0 {
		if k.Probe(ctx, c.HealthPort) {
			result.HealthProbe = ProbeOK
		} else {
			result.HealthProbe = ProbeFailed
		}
	}

	result.Status = summarize(info.Health, result.HealthProbe, age, k.grace())
	return result
}

func (k *Checker) grace() time.Duration {
	if k.StartGrace > 0 {
		return k.StartGrace
	}
	return DefaultStartGrace
}

// summarize derives the status of a running conduit. The engine's own
// health state takes precedence over the TCP probe.
func summarize(native string, probe ProbeState, age, grace time.Duration) Status {
	switch native {
	case "unhealthy":
		return StatusUnhealthy
	case "starting":
		return StatusStarting
	}

	if probe == ProbeFailed {
		if age < grace {
			return StatusStarting
		}
		return StatusUnhealthy
	}
	return StatusHealthy
}

// NeedsRestart reports whether a check result calls for a restart. Query
// failures and conduits the engine is already restarting do not.
func (r *CheckResult) NeedsRestart() bool {
	switch r.Status {
	case StatusStopped:
		return true
	case StatusUnhealthy:
		return r.Error == "" && !r.Restarting
	}
	return false
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
