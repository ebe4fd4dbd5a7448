// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mag-harvest/pkg/types"
)

const sampleExport = `[
  {
    "Id": 42,
    "DN": "Organized Crime in the 21st Century",
    "Ti": "organized crime in the 21st century",
    "Y": 2020,
    "DOI": "10.1000/crime42",
    "ECC": 17,
    "IA": {"IndexLength": 3, "InvertedIndex": {"crime": [1], "organized": [0], "pays": [2]}},
    "AA": [{"AuId": 1, "DAuN": "A Smith"}, {"AuId": 2, "DAuN": "B Lee"}],
    "J": {"JN": "journal of crime"},
    "F": [{"FId": 7, "FN": "political science"}]
  },
  {
    "Id": 43,
    "DN": "Deep Learning for Bird Song",
    "Y": 2021
  },
  {
    "DN": "Paper Without MAG Id",
    "Y": 1999
  }
]`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "pubs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestJSON(t *testing.T) {
	s := openTestStore(t)
	path := writeExport(t, sampleExport)

	summary, err := s.IngestJSON(context.Background(), path, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Indexed)
	assert.Equal(t, 0, summary.Failed)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIngestJSONUpsertsByMagID(t *testing.T) {
	s := openTestStore(t)
	path := writeExport(t, sampleExport)

	_, err := s.IngestJSON(context.Background(), path, io.Discard)
	require.NoError(t, err)
	_, err = s.IngestJSON(context.Background(), path, io.Discard)
	require.NoError(t, err)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	// Entities with a MAG id update in place; the one without gets a
	// second row.
	assert.Equal(t, 4, n)
}

func TestIngestJSONMissingFile(t *testing.T) {
	s := openTestStore(t)
	_, err := s.IngestJSON(context.Background(), filepath.Join(t.TempDir(), "absent.json"), io.Discard)
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	path := writeExport(t, sampleExport)
	_, err := s.IngestJSON(context.Background(), path, io.Discard)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "organized", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	p := results[0]
	assert.Equal(t, int64(42), p.MagID)
	assert.Equal(t, "Organized Crime in the 21st Century", p.Title)
	assert.Equal(t, "A Smith;B Lee", p.Authors)
	assert.Equal(t, "1;2", p.AuthorIDs)
	assert.Equal(t, int64(2020), p.Year)
	assert.Equal(t, "journal of crime", p.Journal)
	assert.Equal(t, "organized crime pays", p.Abstract)
	assert.Equal(t, int64(17), p.Citations)

	// The restored abstract is searchable.
	results, err = s.Search(context.Background(), "pays", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Search(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestSearchLimit(t *testing.T) {
	s := openTestStore(t)
	path := writeExport(t, sampleExport)
	_, err := s.IngestJSON(context.Background(), path, io.Discard)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "the", 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 1)
}
