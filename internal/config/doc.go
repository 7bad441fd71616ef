// Package config provides configuration types and loading for conduit-console.
//
// # Configuration Files
//
//   - HostConfig: host-level settings from /etc/conduit-console/config.toml,
//     loaded with viper and overridable through CONDUIT_* variables
//   - Conduit: one TOML file per conduit in /var/lib/conduit-console/conduits
//
// # Host Configuration
//
//	containerPrefix = "conduit-"
//	unitPrefix      = "conduit-"
//	unitDir         = "/etc/systemd/system"
//	userUnits       = false
//	refreshInterval = "2s"
//	monitorInterval = "60s"
//
// # Conduits
//
// A conduit names its backend. Docker conduits carry an image and are
// supervised by the container engine; systemd conduits carry an absolute
// command and are supervised through a generated unit file:
//
//	name       = "web"
//	instanceId = "3f0c..."
//	backend    = "docker"
//	image      = "nginx:1.27"
//	restart    = "unless-stopped"
//
//	[[ports]]
//	host      = 8080
//	container = 80
//
// Loading functions validate names before touching the filesystem, and all
// metadata paths are resolved with filepath-securejoin.
package config
