// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// TOML conduit fixtures are embedded using go:embed:
//
//	fixtures/docker_conduit.toml
//	fixtures/systemd_conduit.toml
//	fixtures/invalid_conduit.toml
//
// Helper functions load and parse them into config.Conduit values:
//
//	c, err := testutil.ValidDockerConduit()
//	c, err := testutil.ValidSystemdConduit()
//	c, err := testutil.InvalidConduit()
//
// # Test Environment
//
// NewTestEnv builds a temporary config, state and unit directory, mock
// runtimes for both backends, and installs the result as app.Default:
//
//	env := testutil.NewTestEnv(t)
//	defer env.Cleanup()
//	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusRunning)
package testutil
