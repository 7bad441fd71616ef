package conduit

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/audit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

// Lifecycle starts, stops and removes existing conduits, recording each
// transition in the audit log.
type Lifecycle struct {
	paths    *config.Paths
	runtimes *runtime.Set
	audit    *audit.Logger
	units    *unit.Writer
}

// NewLifecycle creates a Lifecycle from an application context.
func NewLifecycle(a *app.App) *Lifecycle {
	return &Lifecycle{
		paths:    a.Paths,
		runtimes: a.Runtimes,
		audit:    a.Audit,
		units:    a.UnitWriter(),
	}
}

// Load returns the conduit and the runtime that supervises it.
func (l *Lifecycle) Load(name string) (*config.Conduit, runtime.Runtime, error) {
	c, err := config.LoadConduit(l.paths.ConduitsDir, name)
	if err != nil {
		return nil, nil, errors.ConduitNotFound(name)
	}
	rt, err := l.runtimes.ForConduit(c)
	if err != nil {
		return c, nil, err
	}
	return c, rt, nil
}

// Start starts a conduit.
func (l *Lifecycle) Start(ctx context.Context, name string) error {
	c, rt, err := l.Load(name)
	if err != nil {
		return err
	}
	if err := rt.Start(ctx, name); err != nil {
		l.record(audit.EventError, c, fmt.Sprintf("start: %v", err))
		return errors.ContainerFailed("start", err)
	}
	l.record(audit.EventStart, c, "")
	return nil
}

// Stop stops a conduit. A positive timeout is passed to runtimes that
// support graceful stops.
func (l *Lifecycle) Stop(ctx context.Context, name string, timeout time.Duration) error {
	c, rt, err := l.Load(name)
	if err != nil {
		return err
	}
	if err := stop(ctx, rt, name, timeout); err != nil {
		l.record(audit.EventError, c, fmt.Sprintf("stop: %v", err))
		return errors.ContainerFailed("stop", err)
	}
	l.record(audit.EventStop, c, "")
	return nil
}

// Restart stops the conduit if it is running and starts it again.
func (l *Lifecycle) Restart(ctx context.Context, name string, timeout time.Duration) error {
	c, rt, err := l.Load(name)
	if err != nil {
		return err
	}

	running, err := rt.IsRunning(ctx, name)
	if err != nil {
		logging.Debug("could not query conduit state", "name", name, "error", err)
	}
	if running {
		if err := stop(ctx, rt, name, timeout); err != nil {
			l.record(audit.EventError, c, fmt.Sprintf("restart: %v", err))
			return errors.ContainerFailed("stop", err)
		}
	}
	if err := rt.Start(ctx, name); err != nil {
		l.record(audit.EventError, c, fmt.Sprintf("restart: %v", err))
		return errors.ContainerFailed("start", err)
	}
	l.record(audit.EventRestart, c, "manual")
	return nil
}

// Remove destroys a conduit and deletes its files. With keepEvents the
// audit log survives and receives a destroy event.
func (l *Lifecycle) Remove(ctx context.Context, name string, keepEvents bool) error {
	c, err := config.LoadConduit(l.paths.ConduitsDir, name)
	if err != nil {
		return errors.ConduitNotFound(name)
	}

	rt, err := l.runtimes.ForConduit(c)
	if err != nil {
		logging.Warn("backend unavailable, removing metadata only", "name", name, "backend", c.Backend)
		rt = nil
	}

	opts := DefaultCleanupOptions()
	opts.RemoveAuditLog = !keepEvents
	if err := Cleanup(ctx, c, l.paths, opts, rt, l.units); err != nil {
		return errors.ContainerFailed("remove", err)
	}
	if keepEvents {
		l.record(audit.EventDestroy, c, "")
	}
	return nil
}

func stop(ctx context.Context, rt runtime.Runtime, name string, timeout time.Duration) error {
	if gs, ok := rt.(runtime.GracefulStopper); ok && timeout > 0 {
		return gs.GracefulStop(ctx, name, timeout)
	}
	return rt.Stop(ctx, name)
}

func (l *Lifecycle) record(t audit.EventType, c *config.Conduit, details string) {
	if l.audit == nil {
		return
	}
	if err := l.audit.Log(audit.Event{Type: t, Conduit: c.Name, InstanceID: c.InstanceID, Details: details}); err != nil {
		logging.Warn("failed to write audit event", "name", c.Name, "type", t, "error", err)
	}
}
