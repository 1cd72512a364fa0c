// Package logging provides structured logging configuration using log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level slog.Level
	// JSON enables JSON output format.
	JSON bool
	// Output is the writer to write logs to. Defaults to os.Stderr.
	Output io.Writer
}

// NewConfig builds a Config from a level name (DEBUG, INFO, WARN, ERROR) and output format.
// Unknown level names fall back to INFO.
func NewConfig(level string, json bool) Config {
	return Config{
		Level:  ParseLevel(level),
		JSON:   json,
		Output: os.Stderr,
	}
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the default slog logger with the given configuration.
func Setup(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
