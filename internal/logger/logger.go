// Package logger holds the process-wide structured logger used by heapkit.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// EnvLogAlloc enables allocator debug logging to stderr when set to any
// non-empty value.
const EnvLogAlloc = "HEAPKIT_LOG_ALLOC"

// L is the global logger instance. It discards all output unless Init is
// called or EnvLogAlloc is set in the environment.
var L = defaultLogger()

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	JSON    bool       // JSON records instead of key=value text
	Writer  io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) {
	L = New(opts)
}

// New builds a logger from opts without touching L.
func New(opts Options) *slog.Logger {
	if !opts.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func defaultLogger() *slog.Logger {
	return New(Options{
		Enabled: os.Getenv(EnvLogAlloc) != "",
		Level:   slog.LevelDebug,
	})
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }
