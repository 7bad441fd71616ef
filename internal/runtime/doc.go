// Package runtime provides the backends that run conduits.
//
// Supported backends:
//   - docker: containers driven through the docker or podman CLI. The
//     engine's restart policy supervises the conduit; no unit file exists.
//   - systemd: host processes described by a generated service unit.
//
// Backend selection is per conduit. A Set maps each backend to its Runtime
// and is built by NewSet, which only registers the backends whose tooling is
// present on the host.
//
// # Runtime Interface
//
// The Runtime interface defines operations common to all backends:
//   - Create, Start, Stop, Destroy: conduit lifecycle
//   - IsRunning, Status: state queries
//   - Logs: recent output
//   - List: enumerate the conduits the backend knows about
//
// Runtimes that can stop with a grace period implement GracefulStopper, and
// runtimes that describe themselves implement CapableRuntime.
//
// # Mock Runtime
//
// For testing, use NewMockRuntime() to create an in-memory implementation
// that records calls and supports error injection.
package runtime
