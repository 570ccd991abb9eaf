// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger used by the CLI and handed to
// the conversion pipeline.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// New returns a logger writing to out in the configured format and level.
// Format "json" writes one JSON object per line; anything else is the
// human-readable console format.
func New(cfg types.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "json":
		zl = zerolog.New(out)
	case "", "console":
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
		})
	default:
		return zerolog.Nop(), &types.InvalidConfigurationError{
			Field:  "log.format",
			Reason: fmt.Sprintf("unknown format %q (want console or json)", cfg.Format),
		}
	}

	return zl.Level(level).With().Timestamp().Str("app", "pdfconv").Logger(), nil
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, &types.InvalidConfigurationError{
			Field:  "log.level",
			Reason: fmt.Sprintf("unknown level %q", s),
		}
	}
	return level, nil
}
