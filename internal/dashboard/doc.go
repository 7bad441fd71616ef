// Package dashboard provides the live conduit view.
//
// The interactive mode is a bubbletea program that refreshes on every
// tick of the configured interval. Each refresh bumps the counter and the
// last-refresh time in the footer even when no conduit changed. Errors
// from a refresh are displayed and the program keeps running; only q,
// ctrl+c, the optional duration or context cancellation end it.
//
// RunHeadless is the non-interactive equivalent used when stdout is not a
// terminal. It writes one text frame per refresh and reads exit commands
// from an input stream; end of input is not an exit command.
//
// Both modes accept a Changes channel, normally fed by a Watcher on the
// conduits directory, to refresh as soon as a conduit is added or removed.
package dashboard
