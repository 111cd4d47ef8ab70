// Package logging sets up the process wide slog logger and hands out loggers scoped to a
// component.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	ErrUnknownFormat = errors.New("unknown log format")
	ErrUnknownLevel  = errors.New("unknown log level")
)

// Init replaces the default slog logger. Output goes to stderr unless a writer is given.
func Init(level slog.Level, format string, w ...io.Writer) error {
	var out io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		out = w[0]
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	case FormatText, "":
		handler = slog.NewTextHandler(out, opts)
	default:
		return fmt.Errorf("%q, %w", format, ErrUnknownFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel maps debug, info, warn and error onto slog levels
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%q, %w", s, ErrUnknownLevel)
	}
	return level, nil
}

// New returns the default logger tagged with the component name
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
