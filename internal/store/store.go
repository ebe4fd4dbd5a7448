// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvested publications in a local SQLite index
// with full-text search over titles and abstracts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mag-harvest/internal/mag"
	"github.com/pdiddy/mag-harvest/pkg/types"
)

const defaultMaxResults = 20

// Store manages the publication SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the publication database at cfg.Path, creating
// the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = filepath.Join("index", "publications.db")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			mag_id INTEGER UNIQUE,
			title TEXT,
			normalized_title TEXT,
			authors TEXT,
			author_ids TEXT,
			year INTEGER,
			date TEXT,
			doi TEXT,
			journal TEXT,
			publisher TEXT,
			abstract TEXT,
			fields TEXT,
			citations INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_doi ON publications(doi)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='publications_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE publications_fts USING fts5(title, abstract, content=publications, content_rowid=rowid)`,
			`CREATE TRIGGER publications_ai AFTER INSERT ON publications BEGIN
				INSERT INTO publications_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER publications_ad AFTER DELETE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER publications_au AFTER UPDATE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO publications_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Publication is one indexed entity in its flattened form.
type Publication struct {
	MagID     int64  `json:"mag_id,omitempty"`
	Title     string `json:"title"`
	Authors   string `json:"authors,omitempty"`
	AuthorIDs string `json:"author_ids,omitempty"`
	Year      int64  `json:"year,omitempty"`
	Date      string `json:"date,omitempty"`
	DOI       string `json:"doi,omitempty"`
	Journal   string `json:"journal,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Abstract  string `json:"abstract,omitempty"`
	Fields    string `json:"fields,omitempty"`
	Citations int64  `json:"citations,omitempty"`
}

// fromRow maps a flattened entity onto the indexed columns.
func fromRow(row mag.Row) Publication {
	str := func(code string) string {
		if v, ok := row.Values[code].(string); ok {
			return v
		}
		return ""
	}
	num := func(code string) int64 {
		if n, ok := row.Values[code].(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
		}
		return 0
	}

	title := str("DN")
	if title == "" {
		title = str("Ti")
	}
	return Publication{
		MagID:     num("Id"),
		Title:     title,
		Authors:   str("DAuN"),
		AuthorIDs: str("AuId"),
		Year:      num("Y"),
		Date:      str("D"),
		DOI:       str("DOI"),
		Journal:   str("JN"),
		Publisher: str("PB"),
		Abstract:  str("RA"),
		Fields:    str("FN"),
		Citations: num("ECC"),
	}
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Indexed int
	Failed  int
}

// Total returns the number of entities processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Failed
}

// IngestJSON reads a raw entity export (the array SaveJSON writes),
// re-flattens every entity and upserts it into the index. Per-entity
// decode failures are reported to w and counted, not fatal.
func (s *Store) IngestJSON(ctx context.Context, path string, w io.Writer) (IngestSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading export %s: %w", path, err)
	}

	var entities []json.RawMessage
	if err := json.Unmarshal(data, &entities); err != nil {
		return IngestSummary{}, fmt.Errorf("parsing export %s: %w", path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publications
			(mag_id, title, normalized_title, authors, author_ids, year, date, doi, journal, publisher, abstract, fields, citations)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(mag_id) DO UPDATE SET
			title=excluded.title, normalized_title=excluded.normalized_title,
			authors=excluded.authors, author_ids=excluded.author_ids,
			year=excluded.year, date=excluded.date, doi=excluded.doi,
			journal=excluded.journal, publisher=excluded.publisher,
			abstract=excluded.abstract, fields=excluded.fields,
			citations=excluded.citations`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var summary IngestSummary
	for i, raw := range entities {
		rec := &mag.Record{}
		if err := json.Unmarshal(raw, rec); err != nil {
			fmt.Fprintf(w, "failed  entity %d: %v\n", i, err)
			summary.Failed++
			continue
		}
		row := rec.Flatten()
		p := fromRow(row)

		var magID any
		if p.MagID != 0 {
			magID = p.MagID
		}
		_, err = stmt.ExecContext(ctx,
			magID, p.Title, nullable(strValue(row, "Ti")), p.Authors, p.AuthorIDs,
			p.Year, p.Date, p.DOI, p.Journal, p.Publisher,
			p.Abstract, p.Fields, p.Citations,
		)
		if err != nil {
			fmt.Fprintf(w, "failed  entity %d: %v\n", i, err)
			summary.Failed++
			continue
		}
		summary.Indexed++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing: %w", err)
	}

	fmt.Fprintf(w, "\nindexed: %d, failed: %d\n", summary.Indexed, summary.Failed)
	return summary, nil
}

func strValue(row mag.Row, code string) string {
	if v, ok := row.Values[code].(string); ok {
		return v
	}
	return ""
}

// nullable turns the empty string into SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Search runs an FTS5 match over titles and abstracts and returns up to
// maxResults publications ranked by relevance. An empty query is an error.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Publication, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.mag_id, p.title, p.authors, p.author_ids, p.year, p.date,
			p.doi, p.journal, p.publisher, p.abstract, p.fields, p.citations
		 FROM publications_fts f
		 JOIN publications p ON p.rowid = f.rowid
		 WHERE publications_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Publication
	for rows.Next() {
		var p Publication
		var magID, year, citations sql.NullInt64
		var authors, authorIDs, date, doi, journal, publisher, abstract, fields sql.NullString
		if err := rows.Scan(&magID, &p.Title, &authors, &authorIDs, &year, &date,
			&doi, &journal, &publisher, &abstract, &fields, &citations); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		p.MagID = magID.Int64
		p.Authors = authors.String
		p.AuthorIDs = authorIDs.String
		p.Year = year.Int64
		p.Date = date.String
		p.DOI = doi.String
		p.Journal = journal.String
		p.Publisher = publisher.String
		p.Abstract = abstract.String
		p.Fields = fields.String
		p.Citations = citations.Int64
		results = append(results, p)
	}
	return results, rows.Err()
}

// Count returns the number of indexed publications.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM publications`).Scan(&n)
	return n, err
}
