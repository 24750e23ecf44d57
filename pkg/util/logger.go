package util

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
)

var logger logr.Logger

// InitLogger initializes the global logger with the specified log level.
// Logs go to stderr so they never mix with tool output printed on stdout.
func InitLogger(verbose bool) {
	InitLoggerTo(os.Stderr, verbose)
}

// InitLoggerTo initializes the global logger writing to w
func InitLoggerTo(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	logger = logr.FromSlogHandler(handler)
	slog.SetDefault(slog.New(handler))
}

// GetLogger returns the global logger instance
func GetLogger() logr.Logger {
	if logger.GetSink() == nil {
		InitLogger(false)
	}
	return logger
}
