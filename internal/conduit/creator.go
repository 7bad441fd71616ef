package conduit

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/audit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

// Creator handles conduit creation with all necessary dependencies.
type Creator struct {
	paths      *config.Paths
	hostConfig *config.HostConfig
	runtimes   *runtime.Set
	audit      *audit.Logger
	units      *unit.Writer
	now        func() time.Time
}

// NewCreator creates a Creator from an application context.
func NewCreator(a *app.App) *Creator {
	return &Creator{
		paths:      a.Paths,
		hostConfig: a.HostConfig,
		runtimes:   a.Runtimes,
		audit:      a.Audit,
		units:      a.UnitWriter(),
		now:        time.Now,
	}
}

func (c *Creator) conduitFromOptions(opts CreateOptions) *config.Conduit {
	return &config.Conduit{
		Name:        opts.Name,
		InstanceID:  uuid.NewString(),
		Backend:     opts.Backend,
		Description: opts.Description,
		Image:       opts.Image,
		Command:     opts.Command,
		WorkingDir:  opts.WorkingDir,
		Env:         opts.Env,
		Ports:       opts.Ports,
		Mounts:      opts.Mounts,
		Restart:     opts.Restart,
		HealthPort:  opts.HealthPort,
		CreatedAt:   c.now().UTC().Truncate(time.Second),
	}
}

// Create creates a new conduit with the given options.
func (c *Creator) Create(ctx context.Context, opts CreateOptions) (*Instance, error) {
	logging.Debug("starting conduit creation", "name", opts.Name, "backend", opts.Backend)

	if err := config.ValidateConduitName(opts.Name); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	if config.ConduitExists(c.paths.ConduitsDir, opts.Name) {
		return nil, errors.ConduitExists(opts.Name)
	}

	conduit := c.conduitFromOptions(opts)
	if err := conduit.Validate(); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	rt, err := c.runtimes.ForConduit(conduit)
	if err != nil {
		return nil, err
	}

	if err := config.SaveConduit(c.paths.ConduitsDir, conduit); err != nil {
		return nil, errors.ConfigError("failed to save conduit metadata", err)
	}

	logging.Debug("creating conduit", "name", conduit.Name, "runtime", rt.Name(), "instance", conduit.InstanceID)
	if err := rt.Create(ctx, runtime.CreateOptions{Conduit: conduit, Start: opts.Start}); err != nil {
		c.rollback(conduit, rt)
		return nil, errors.ContainerFailed("create", err)
	}

	c.logEvent(audit.EventCreate, conduit, fmt.Sprintf("backend=%s", conduit.Backend))
	if opts.Start {
		c.logEvent(audit.EventStart, conduit, "")
	}

	instance := &Instance{
		Name:       conduit.Name,
		InstanceID: conduit.InstanceID,
		Backend:    conduit.Backend,
		Conduit:    conduit,
	}
	if conduit.ManagesUnitFile() && c.units != nil {
		instance.UnitFile = filepath.Join(c.units.Dir, conduit.UnitName(c.units.Prefix))
	}

	return instance, nil
}

// rollback removes whatever a failed create left behind.
func (c *Creator) rollback(conduit *config.Conduit, rt runtime.Runtime) {
	opts := DefaultCleanupOptions()
	opts.RemoveAuditLog = false
	if err := Cleanup(context.Background(), conduit, c.paths, opts, rt, c.units); err != nil {
		logging.Warn("rollback incomplete", "name", conduit.Name, "error", err)
	}
}

func (c *Creator) logEvent(t audit.EventType, conduit *config.Conduit, details string) {
	if c.audit == nil {
		return
	}
	err := c.audit.Log(audit.Event{
		Type:       t,
		Conduit:    conduit.Name,
		InstanceID: conduit.InstanceID,
		Details:    details,
	})
	if err != nil {
		logging.Warn("failed to write audit event", "name", conduit.Name, "type", t, "error", err)
	}
}
