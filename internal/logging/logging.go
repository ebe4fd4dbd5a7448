// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger used across the harvester.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mag-harvest/pkg/types"
)

// New returns a logger configured from cfg, writing to stderr. The
// "console" format gets a human-readable writer; anything else logs JSON.
// Unknown levels fall back to info.
func New(cfg types.LoggingConfig) zerolog.Logger {
	var out = os.Stderr

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == "console" || cfg.Format == "" {
		writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(writer).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
