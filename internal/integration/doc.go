// Package integration holds end-to-end tests that drive a real container
// engine.
//
// The tests are skipped unless CONDUIT_INTEGRATION_TESTS=1 is set and a
// docker or podman binary is responsive. Run with:
//
//	CONDUIT_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration
