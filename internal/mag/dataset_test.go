// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"
)

const samplePage = `{
  "expr": "And(AW='crime')",
  "entities": [
    {
      "prob": 0.5,
      "logprob": -0.69,
      "Id": 42,
      "DN": "Organized Crime in the 21st Century",
      "Y": 2020,
      "IA": {"IndexLength": 3, "InvertedIndex": {"crime": [1], "organized": [0], "pays": [2]}},
      "AA": [{"AuId": 1, "DAuN": "A Smith"}, {"AuId": 2, "DAuN": "B Lee"}],
      "J": {"JN": "journal of crime"},
      "F": [{"FId": 7, "FN": "political science"}]
    },
    {
      "prob": 0.4,
      "logprob": -0.91,
      "Id": 43,
      "DN": "Étude comparée",
      "Y": 2021
    }
  ]
}`

// datasetServer serves one sample page, then empty pages. Requests whose
// expression targets a field-of-study id get a single FoS entity.
func datasetServer(t *testing.T) (*Dataset, *httptest.Server, func()) {
	t.Helper()
	served := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expr := r.URL.Query().Get("expr")
		if strings.HasPrefix(expr, "And(Id=") {
			fmt.Fprintf(w, `{"entities": [{"Id": 7, "FN": "political science", "FL": 1}]}`)
			return
		}
		if served {
			fmt.Fprint(w, `{"entities": []}`)
			return
		}
		served = true
		fmt.Fprint(w, samplePage)
	}))

	old := evaluateEndpoint
	evaluateEndpoint = ts.URL
	cleanup := func() {
		evaluateEndpoint = old
		ts.Close()
	}

	ds := NewDataset(
		QuerySpec{Expr: "And(AW='crime')", Key: "k", Count: 2},
		NewClient(ts.Client(), "mag-harvest/test"),
		zerolog.Nop(),
	)
	ds.PageDelay = time.Millisecond
	ds.FosDelay = time.Millisecond
	return ds, ts, cleanup
}

func TestDatasetDownloadOnce(t *testing.T) {
	ds, _, cleanup := datasetServer(t)
	defer cleanup()

	if err := ds.Download(context.Background()); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}

	err := ds.Download(context.Background())
	if !errors.Is(err, ErrAlreadyDownloaded) {
		t.Errorf("second Download err = %v, want ErrAlreadyDownloaded", err)
	}
}

// A transport failure on the third page leaves the first two pages in the
// Dataset and propagates the error.
func TestDatasetPartialFailureRetainsEntities(t *testing.T) {
	ps := &pagedServer{pages: 5, pageSize: 3, failAt: 2}
	ts := httptest.NewServer(ps.handler())
	defer ts.Close()
	old := evaluateEndpoint
	evaluateEndpoint = ts.URL
	defer func() { evaluateEndpoint = old }()

	ds := NewDataset(
		QuerySpec{Expr: "e", Key: "k", Count: 3},
		NewClient(ts.Client(), "mag-harvest/test"),
		zerolog.Nop(),
	)
	ds.PageDelay = time.Millisecond

	err := ds.Download(context.Background())
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
	if ds.Len() != 6 {
		t.Errorf("Len() = %d, want 6 (pages one and two)", ds.Len())
	}
	if len(ds.Raw()) != 6 {
		t.Errorf("len(Raw()) = %d, want 6", len(ds.Raw()))
	}
}

func TestDatasetTableDropsAndRenames(t *testing.T) {
	ds, _, cleanup := datasetServer(t)
	defer cleanup()
	if err := ds.Download(context.Background()); err != nil {
		t.Fatalf("Download: %v", err)
	}

	table := ds.Table()
	want := []string{
		"mag_ID", "original_paper_title", "year_published", "restored_abstract",
		"author_name", "author_id", "journal_name", "field_of_study",
	}
	if !slices.Equal(table.Header, want) {
		t.Errorf("Header = %v, want %v", table.Header, want)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}

	first := table.Rows[0]
	if first[0] != "42" || first[3] != "organized crime pays" || first[4] != "A Smith;B Lee" || first[5] != "1;2" {
		t.Errorf("first row = %v", first)
	}
	// Second entity lacks the nested attributes; its cells stay empty.
	second := table.Rows[1]
	if second[1] != "Étude comparée" || second[3] != "" || second[4] != "" {
		t.Errorf("second row = %v", second)
	}
}

// Export before any fetch writes nothing and raises no error.
func TestExportBeforeDownloadIsNoOp(t *testing.T) {
	dir := t.TempDir()
	ds := NewDataset(QuerySpec{Expr: "e", Key: "k"}, NewClient(nil, ""), zerolog.Nop())

	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")
	if err := ds.SaveCSV(csvPath); err != nil {
		t.Errorf("SaveCSV: %v", err)
	}
	if err := ds.SaveJSON(jsonPath); err != nil {
		t.Errorf("SaveJSON: %v", err)
	}

	for _, p := range []string{csvPath, jsonPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should not exist", p)
		}
	}
}

func TestSaveCSV(t *testing.T) {
	ds, _, cleanup := datasetServer(t)
	defer cleanup()
	if err := ds.Download(context.Background()); err != nil {
		t.Fatalf("Download: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ds.SaveCSV(path); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want header + 2 rows", len(records))
	}
	if records[0][0] != "mag_ID" {
		t.Errorf("header = %v", records[0])
	}
	if slices.Contains(records[0], "prob") || slices.Contains(records[0], "logprob") {
		t.Errorf("scoring fields must not appear in the header: %v", records[0])
	}
}

func TestSaveJSONPreservesRawEntities(t *testing.T) {
	ds, _, cleanup := datasetServer(t)
	defer cleanup()
	if err := ds.Download(context.Background()); err != nil {
		t.Fatalf("Download: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := ds.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Non-ASCII stays literal and the inverted abstract is still present
	// in its raw form.
	if !strings.Contains(string(data), "Étude comparée") {
		t.Error("non-ASCII characters should be preserved literally")
	}
	if !strings.Contains(string(data), "InvertedIndex") {
		t.Error("raw channel should keep the inverted abstract")
	}
	if !strings.Contains(string(data), "\n    ") {
		t.Error("output should be indented")
	}

	var entities []map[string]any
	if err := json.Unmarshal(data, &entities); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(entities) != 2 {
		t.Errorf("len(entities) = %d, want 2", len(entities))
	}
	if _, ok := entities[0]["prob"]; !ok {
		t.Error("raw channel should keep the scoring fields")
	}
}

// --- fields of study ---

func TestFetchFieldsOfStudy(t *testing.T) {
	ds, _, cleanup := datasetServer(t)
	defer cleanup()

	// Preconditions: enrichment before download fails fast.
	if err := ds.FetchFieldsOfStudy(context.Background()); !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("err = %v, want ErrNotDownloaded", err)
	}

	if err := ds.Download(context.Background()); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if err := ds.FetchFieldsOfStudy(context.Background()); err != nil {
		t.Fatalf("FetchFieldsOfStudy: %v", err)
	}
	if got := len(ds.FieldsOfStudy()); got != 1 {
		t.Fatalf("len(FieldsOfStudy()) = %d, want 1", got)
	}

	// A second enrichment run fails fast.
	if err := ds.FetchFieldsOfStudy(context.Background()); !errors.Is(err, ErrFosesLoaded) {
		t.Errorf("err = %v, want ErrFosesLoaded", err)
	}

	// The enrichment file is written alongside the main export.
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "data.json")
	if err := ds.SaveJSON(jsonPath); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data_foses.json")); err != nil {
		t.Errorf("expected data_foses.json next to the export: %v", err)
	}
}

func TestFosesPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"data.json", "data_foses.json"},
		{"out/nojson", "out/nojson_foses.json"},
	}
	for _, tt := range tests {
		if got := FosesPath(tt.in); got != tt.want {
			t.Errorf("FosesPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- manifest ---

func TestWriteManifest(t *testing.T) {
	ds, _, cleanup := datasetServer(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := ds.WriteManifest(path); !errors.Is(err, ErrNotDownloaded) {
		t.Fatalf("err = %v, want ErrNotDownloaded", err)
	}

	if err := ds.Download(context.Background()); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if err := ds.WriteManifest(path); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Expr != "And(AW='crime')" || m.Entities != 2 || m.PageSize != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if strings.Contains(strings.ToLower(string(data)), "subscription") {
		t.Error("manifest must not contain the subscription key")
	}
}
