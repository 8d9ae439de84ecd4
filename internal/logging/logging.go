// Package logging sets up the file-backed zerolog logger. The TUI owns
// stdout, so everything the engine wants to say about itself goes to a
// log file instead.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Open creates (or appends to) the log file at path and returns a logger
// writing JSON lines to it, plus a close func for shutdown.
func Open(path, levelStr string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).
		Level(parseLevel(levelStr)).
		With().
		Timestamp().
		Logger()

	return logger, func() { _ = f.Close() }, nil
}

func parseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
