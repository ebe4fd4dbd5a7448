// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mag-harvest/pkg/types"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.LoggingConfig
		want zerolog.Level
	}{
		{"default level", types.LoggingConfig{}, zerolog.InfoLevel},
		{"debug", types.LoggingConfig{Level: "debug"}, zerolog.DebugLevel},
		{"warn json", types.LoggingConfig{Level: "warn", Format: "json"}, zerolog.WarnLevel},
		{"unknown falls back to info", types.LoggingConfig{Level: "loud"}, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}
