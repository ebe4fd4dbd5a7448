// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Manifest records what one harvest run fetched, so a researcher can
// reload the outputs later and know which query produced them. The
// subscription key is deliberately absent.
type Manifest struct {
	Expr          string    `yaml:"expr"`
	Model         string    `yaml:"model"`
	Attributes    string    `yaml:"attributes"`
	PageSize      int       `yaml:"page_size"`
	StartOffset   int       `yaml:"start_offset"`
	MaxResults    int       `yaml:"max_results,omitempty"`
	Entities      int       `yaml:"entities"`
	FieldsOfStudy int       `yaml:"fields_of_study,omitempty"`
	FetchedAt     time.Time `yaml:"fetched_at"`
}

// WriteManifest writes the run manifest as YAML to path. It requires a
// completed Download.
func (d *Dataset) WriteManifest(path string) error {
	if !d.downloaded {
		return ErrNotDownloaded
	}

	spec := d.Spec.withDefaults()
	m := Manifest{
		Expr:          spec.Expr,
		Model:         spec.Model,
		Attributes:    spec.Attributes,
		PageSize:      spec.Count,
		StartOffset:   spec.Offset,
		MaxResults:    spec.MaxResults,
		Entities:      len(d.rows),
		FieldsOfStudy: len(d.foses),
		FetchedAt:     time.Now().UTC(),
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
