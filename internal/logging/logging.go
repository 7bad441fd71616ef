package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	// Logger is the process-wide structured logger.
	Logger *slog.Logger

	// Verbose is true when debug records are emitted.
	Verbose bool

	level = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelInfo)
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Setup replaces the global logger. A nil writer means stderr.
func Setup(verbose bool, jsonOutput bool, w io.Writer) {
	Verbose = verbose
	if w == nil {
		w = os.Stderr
	}

	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		Logger = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		Logger = slog.New(slog.NewTextHandler(w, opts))
	}
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a level.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel adjusts the minimum level without rebuilding the handler.
func SetLevel(l slog.Level) {
	level.Set(l)
	Verbose = l <= slog.LevelDebug
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}
