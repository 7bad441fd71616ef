package runtime

import (
	"context"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/config"
)

// ContainerStatus represents the state of a conduit as seen by its backend.
type ContainerStatus string

const (
	StatusRunning    ContainerStatus = "running"
	StatusRestarting ContainerStatus = "restarting"
	StatusStopped    ContainerStatus = "stopped"
	StatusNotFound   ContainerStatus = "not-found"
	StatusUnknown    ContainerStatus = "unknown"
)

// ContainerInfo holds what a backend reports about a conduit.
type ContainerInfo struct {
	Name         string          `json:"name" yaml:"name"`
	Status       ContainerStatus `json:"status" yaml:"status"`
	StartedAt    time.Time       `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	Health       string          `json:"health,omitempty" yaml:"health,omitempty"`
	RestartCount int             `json:"restartCount" yaml:"restartCount"`
	InstanceID   string          `json:"instanceId,omitempty" yaml:"instanceId,omitempty"`
}

// CreateOptions holds options for creating a conduit.
type CreateOptions struct {
	Conduit *config.Conduit
	Start   bool // Start immediately after creation
}

// LogOptions controls log retrieval.
type LogOptions struct {
	Lines  int  // Number of trailing lines, 0 for the backend default
	Follow bool // Stream to the terminal until interrupted
}

// Runtime is the interface that conduit backends must implement.
// All methods take the conduit name, not the backend-visible name,
// and should be safe for concurrent use.
type Runtime interface {
	// Name returns the runtime identifier (e.g., "docker", "systemd")
	Name() string

	// Create creates a new conduit and optionally starts it
	Create(ctx context.Context, opts CreateOptions) error

	// Start starts an existing conduit
	Start(ctx context.Context, name string) error

	// Stop stops a running conduit
	Stop(ctx context.Context, name string) error

	// Destroy stops and removes a conduit
	Destroy(ctx context.Context, name string) error

	// IsRunning checks if a conduit is currently running
	IsRunning(ctx context.Context, name string) (bool, error)

	// Status returns detailed status of a conduit
	Status(ctx context.Context, name string) (*ContainerInfo, error)

	// Logs returns recent output of a conduit. With Follow set, output is
	// streamed to the terminal and the returned string is empty.
	Logs(ctx context.Context, name string, opts LogOptions) (string, error)

	// List returns all conduits managed by this runtime
	List(ctx context.Context) ([]*ContainerInfo, error)
}

// GracefulStopper is implemented by runtimes that can stop with a timeout
// before killing.
type GracefulStopper interface {
	GracefulStop(ctx context.Context, name string, timeout time.Duration) error
}

// UnitRemover is implemented by runtimes that can retire arbitrary unit
// files: disable and stop each one, delete it, then reload the manager.
type UnitRemover interface {
	RemoveUnits(ctx context.Context, files ...string) error
}

// Capabilities describes what a backend provides.
type Capabilities struct {
	UnitFile      bool `json:"unitFile" yaml:"unitFile"`           // Supervised through a generated unit
	EngineRestart bool `json:"engineRestart" yaml:"engineRestart"` // Restart policy enforced by a container engine
	PortMapping   bool `json:"portMapping" yaml:"portMapping"`
	Mounts        bool `json:"mounts" yaml:"mounts"`
	HealthStatus  bool `json:"healthStatus" yaml:"healthStatus"` // Reports a native health state
	FollowLogs    bool `json:"followLogs" yaml:"followLogs"`
}

// CapableRuntime is implemented by runtimes that describe their capabilities.
type CapableRuntime interface {
	Capabilities() Capabilities
}

// GetCapabilities returns the runtime's capabilities, or a conservative
// default for runtimes that do not describe themselves.
func GetCapabilities(rt Runtime) Capabilities {
	if c, ok := rt.(CapableRuntime); ok {
		return c.Capabilities()
	}
	return Capabilities{}
}
