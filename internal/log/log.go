// Package log extends slog with the two extra levels the binaries use: trace
// for raw request and response bodies from the external APIs, and fatal for
// errors that should end the run with a non-zero exit code.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// LevelTrace logs request and responses from external APIs
	LevelTrace = slog.Level(-8)

	// LevelFatal logs and exits with a non-zero code
	LevelFatal = slog.Level(16)
)

// ParseLevel parses s into a slog.Level, including the custom trace and
// fatal levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "fatal":
		return LevelFatal, nil
	}

	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// NewLogger returns a logger writing to stderr in the given format with the
// custom level names spelled out.
func NewLogger(minLevel slog.Level, addSource bool, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level:     minLevel,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				switch level {
				case LevelTrace:
					a.Value = slog.StringValue("TRACE")
				case LevelFatal:
					a.Value = slog.StringValue("FATAL")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return slog.New(handler), nil
}

// Trace logs a message at trace level using the provided logger.
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Fatal logs a message at fatal level and exits
func Fatal(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}
