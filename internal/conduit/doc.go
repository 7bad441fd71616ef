// Package conduit implements the conduit lifecycle on top of the runtimes.
//
// # Creation
//
// Creator.Create validates the options, assigns a fresh instance ID,
// persists the metadata and hands the conduit to the runtime for its
// backend. If the runtime fails, the metadata is rolled back.
//
//	creator := conduit.NewCreator(app.Default)
//	inst, err := creator.Create(ctx, conduit.CreateOptions{
//	    Name:    "web",
//	    Backend: config.BackendDocker,
//	    Image:   "nginx:1.27",
//	    Start:   true,
//	})
//
// Docker conduits are supervised by the engine's restart policy and never
// get a unit file. Systemd conduits get <unitPrefix><name>.service.
//
// # Cleanup
//
// Cleanup is shared by rm and by creation rollback. CleanupOptions selects
// which resources are removed.
package conduit
