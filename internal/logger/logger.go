package logger

import (
	"io"
	"log/slog"
	"os"
)

var logger *slog.Logger

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the logger writing to stderr
func Init(level, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter initializes the logger with the given level and format ("json" or "text")
func InitWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Get returns the logger instance
func Get() *slog.Logger {
	if logger == nil {
		// Initialize with default level if not already initialized
		Init("info", "text")
	}
	return logger
}

// With returns a child logger carrying the given attributes
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
