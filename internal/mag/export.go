// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SaveCSV writes the tabular projection to path: a header row of renamed
// columns followed by one row per entity, UTF-8, no index column. Calling
// it before any download is a silent no-op.
func (d *Dataset) SaveCSV(path string) error {
	if !d.downloaded {
		return nil
	}

	t := d.Table()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return f.Close()
}

// SaveJSON writes the raw entity sequence to path as an indented UTF-8
// JSON array with non-ASCII characters preserved literally. When
// field-of-study entities were fetched they are written alongside to
// FosesPath(path). Calling SaveJSON before any download is a silent no-op.
func (d *Dataset) SaveJSON(path string) error {
	if !d.downloaded {
		return nil
	}

	if err := writeJSON(path, d.raw); err != nil {
		return err
	}
	if len(d.foses) > 0 {
		return writeJSON(FosesPath(path), d.foses)
	}
	return nil
}

// FosesPath derives the field-of-study export path from the main JSON
// path: data.json becomes data_foses.json.
func FosesPath(path string) string {
	return strings.TrimSuffix(path, ".json") + "_foses.json"
}

func writeJSON(path string, entities []json.RawMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if entities == nil {
		entities = []json.RawMessage{}
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entities); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
