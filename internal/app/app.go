// Package app provides the application context for conduit-console.
// It allows dependency injection for testing.
package app

import (
	"fmt"
	"sync"

	"github.com/firefly-engineering/conduit-console/internal/audit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// HostConfig is the loaded host configuration
	HostConfig *config.HostConfig

	// Runtimes maps each backend to its runtime
	Runtimes *runtime.Set

	// Audit records lifecycle events
	Audit *audit.Logger
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithHostConfig sets a custom host config
func WithHostConfig(cfg *config.HostConfig) Option {
	return func(a *App) {
		a.HostConfig = cfg
	}
}

// WithRuntimes sets a custom runtime set
func WithRuntimes(s *runtime.Set) Option {
	return func(a *App) {
		a.Runtimes = s
	}
}

// WithRuntime registers a single runtime for a backend
func WithRuntime(b config.Backend, rt runtime.Runtime) Option {
	return func(a *App) {
		if a.Runtimes == nil {
			a.Runtimes = runtime.NewStaticSet(nil)
		}
		a.Runtimes.Add(b, rt)
	}
}

// New creates a new App with the given options.
// If no runtimes are provided, available backends are auto-detected.
func New(opts ...Option) *App {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.HostConfig == nil {
		app.HostConfig = config.DefaultHostConfig()
	}
	if app.Paths == nil {
		app.Paths = config.ResolvePaths("", "", app.HostConfig)
	}
	if app.Runtimes == nil {
		app.Runtimes = runtime.NewSet(runtime.ConfigFromHost(app.HostConfig))
	}
	if app.Audit == nil {
		app.Audit = audit.NewLogger(app.Paths.EventsDir)
	}

	return app
}

// Load reads the host configuration and builds an App from it. Empty
// directories fall back to the environment and then the defaults.
func Load(configDir, stateDir string) (*App, error) {
	dir := configDir
	if dir == "" {
		dir = config.DefaultPaths().ConfigDir
	}

	host, err := config.LoadHostConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load host config: %w", err)
	}
	if !logging.Verbose {
		logging.SetLevel(logging.ParseLevel(host.LogLevel))
	}

	paths := config.ResolvePaths(configDir, stateDir, host)
	logging.Debug("resolved paths", "config", paths.ConfigDir, "state", paths.StateDir, "units", paths.UnitDir)

	return New(WithPaths(paths), WithHostConfig(host)), nil
}

// RuntimeFor returns the runtime responsible for a backend.
func (a *App) RuntimeFor(b config.Backend) (runtime.Runtime, error) {
	return a.Runtimes.For(b)
}

// UnitWriter returns a writer for the configured unit directory.
func (a *App) UnitWriter() *unit.Writer {
	return unit.NewWriter(a.Paths.UnitDir, a.HostConfig.UnitPrefix)
}

var (
	defaultMu sync.Mutex
	pinned    bool
)

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing).
// A default set this way is not replaced by Configure.
func SetDefault(app *App) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	Default = app
	pinned = true
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	Default = New()
	pinned = false
}

// Configure loads configuration into Default unless a default was pinned
// with SetDefault.
func Configure(configDir, stateDir string) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if pinned {
		return nil
	}

	a, err := Load(configDir, stateDir)
	if err != nil {
		return err
	}
	Default = a
	return nil
}
