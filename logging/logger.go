// Package logging - Structured logger construction for the benchmark tools.
//
// Diagnostics go through slog. The CSV report stream is written separately
// by the report package so that downstream tooling never sees log records
// interleaved with data lines.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Config selects the level, format and destination of a logger.
type Config struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	// JSON switches from the text handler to the JSON handler.
	JSON bool `json:"json" yaml:"json"`
	// Output defaults to stderr.
	Output io.Writer `json:"-" yaml:"-"`
}

// ParseLevel maps a level name onto its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log level %q", name)
	}
}

// New builds a logger from cfg.
//
// Arguments:
//   - cfg: The logger configuration.
//
// Returns:
//   - *slog.Logger: The configured logger.
//   - error: An error if the level name is not recognized.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	}
	return slog.New(slog.NewTextHandler(out, opts)), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
