// Package app provides the application context for conduit-console.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Paths      *config.Paths      // Config, state and unit directories
//	    HostConfig *config.HostConfig // Host configuration
//	    Runtimes   *runtime.Set       // Backend to runtime mapping
//	    Audit      *audit.Logger      // Lifecycle event log
//	}
//
// # Creating an App
//
//	// Production usage, reading <configDir>/config.toml
//	a, err := app.Load(configDir, stateDir)
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithPaths(testPaths),
//	    app.WithHostConfig(testConfig),
//	    app.WithRuntime(config.BackendDocker, mockRuntime),
//	)
//
// # Default Instance
//
// Commands use app.Default. The root command calls Configure to replace it
// with one built from flags and configuration. Tests call SetDefault, which
// pins the instance so Configure leaves it alone, and ResetDefault afterwards.
package app
