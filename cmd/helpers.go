package cmd

import (
	"context"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/conduit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
	"github.com/firefly-engineering/conduit-console/internal/health"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)

// paths returns the configured paths.
func paths() *config.Paths {
	return app.Default.Paths
}

// lifecycle returns a Lifecycle bound to the current app.
func lifecycle() *conduit.Lifecycle {
	return conduit.NewLifecycle(app.Default)
}

// loadConduit loads conduit metadata or returns a ConduitNotFound error.
func loadConduit(name string) (*config.Conduit, error) {
	c, err := config.LoadConduit(paths().ConduitsDir, name)
	if err != nil {
		return nil, errors.ConduitNotFound(name)
	}
	return c, nil
}

// runtimeFor returns the runtime supervising c.
func runtimeFor(c *config.Conduit) (runtime.Runtime, error) {
	return app.Default.Runtimes.ForConduit(c)
}

// listConduits lists all conduit metadata.
func listConduits() ([]*config.Conduit, error) {
	return config.ListConduits(paths().ConduitsDir)
}

// checkConduit runs a health check, tolerating an unavailable backend.
func checkConduit(ctx context.Context, c *config.Conduit) *health.CheckResult {
	rt, err := runtimeFor(c)
	if err != nil {
		logging.Debug("backend unavailable", "name", c.Name, "backend", c.Backend, "error", err)
		rt = nil
	}
	return health.Check(ctx, c, rt)
}

func formatStatus(status health.Status) string {
	switch status {
	case health.StatusHealthy:
		return "✓ healthy"
	case health.StatusUnhealthy:
		return "⚠ unhealthy"
	case health.StatusStarting:
		return "◐ starting"
	case health.StatusStopped:
		return "● stopped"
	case health.StatusMissing:
		return "○ missing"
	default:
		return string(status)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
