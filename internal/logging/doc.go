// Package logging provides logging utilities for conduit-console.
//
// Two kinds of output are kept apart:
//   - Debug logging: structured records via slog, gated by verbosity
//   - User output: short status lines meant for a human at a terminal
//
// # Debug Logging
//
//	logging.Debug("creating conduit", "name", name, "backend", backend)
//	logging.Warn("health probe failed", "port", port, "error", err)
//
// # User Output
//
//	logging.UserInfo("Creating conduit %s...", name)
//	logging.UserSuccess("Conduit %s created", name)
//	logging.UserWarning("Backend %s unavailable", backend)
//	logging.UserError("Failed to stop conduit: %v", err)
//
// UserInfo and UserSuccess write to Stdout, UserWarning and UserError to
// Stderr. Both writers can be replaced with SetOutput.
package logging
