// Package health provides health check utilities for conduit monitoring.
//
// A check asks the conduit's runtime for its state, then probes the
// conduit's health port on 127.0.0.1 when one is configured.
//
// # Health Status
//
// Conduit health is represented by Status:
//
//	StatusHealthy   - Running, engine health and probe pass
//	StatusStarting  - Running but not yet passing, within the start grace
//	StatusUnhealthy - Running and failing, crash looping, or not queryable
//	StatusStopped   - Known to the backend but not running
//	StatusMissing   - Unknown to the backend
//
// # Check Functions
//
//	result := health.Check(ctx, conduit, rt)
//	// result.Running, .Restarting, .HealthProbe, .Uptime, .Status
//
// Use a Checker to override the probe timeout, start grace, dialer or clock.
package health
