package conduit

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/firefly-engineering/conduit-console/internal/audit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

// CleanupOptions configures conduit cleanup behavior.
type CleanupOptions struct {
	// Destroy if true, stops and destroys the conduit via its runtime.
	Destroy bool

	// RemoveUnit if true, removes the generated unit file (systemd only).
	RemoveUnit bool

	// RemoveMetadata if true, removes the conduit metadata file.
	RemoveMetadata bool

	// RemoveAuditLog if true, removes the conduit's audit events.
	RemoveAuditLog bool
}

// DefaultCleanupOptions returns options that clean up everything.
func DefaultCleanupOptions() CleanupOptions {
	return CleanupOptions{
		Destroy:        true,
		RemoveUnit:     true,
		RemoveMetadata: true,
		RemoveAuditLog: true,
	}
}

// Cleanup removes conduit resources. It is used both by rm and by error
// recovery in the create flow. rt and units may be nil, in which case the
// corresponding step is skipped. Every step runs even if an earlier one
// failed; the errors are joined.
func Cleanup(ctx context.Context, c *config.Conduit, paths *config.Paths, opts CleanupOptions, rt runtime.Runtime, units *unit.Writer) error {
	if c == nil {
		return nil
	}

	name := c.Name
	logging.Debug("cleaning up conduit", "name", name, "backend", c.Backend)

	var errs []error

	if opts.Destroy && rt != nil {
		logging.Debug("destroying conduit", "name", name, "runtime", rt.Name())
		if err := rt.Destroy(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	// Container-managed conduits never had a unit file.
	if opts.RemoveUnit && units != nil && c.ManagesUnitFile() {
		file := c.UnitName(units.Prefix)
		if err := units.Remove(file); err != nil {
			errs = append(errs, err)
		}
	}

	if opts.RemoveMetadata {
		logging.Debug("removing metadata", "name", name)
		if err := config.DeleteConduit(paths.ConduitsDir, name); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	if opts.RemoveAuditLog {
		if err := audit.NewLogger(paths.EventsDir).Remove(name); err != nil {
			errs = append(errs, err)
		}
	}

	return stderrors.Join(errs...)
}
