// Package unit renders and installs systemd service units for conduits
// supervised by the systemd backend.
//
// Container-backed conduits never get a unit: the container engine's
// restart policy supervises them, and Render refuses them with
// ErrContainerManaged. Older installs wrapped containers in units named
// "<prefix><name>-docker.service"; IsLegacyDockerUnit recognises those so
// they can be garbage collected.
//
// Unit paths are resolved with filepath-securejoin so a conduit name can
// never address a file outside the unit directory.
package unit
