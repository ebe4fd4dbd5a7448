// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyDownloaded is returned when Download is called twice on the
// same Dataset. One fetch per QuerySpec instance; build a new Dataset to
// fetch again.
var ErrAlreadyDownloaded = errors.New("dataset already downloaded")

// ErrNotDownloaded is returned by operations that need a completed
// download first.
var ErrNotDownloaded = errors.New("no download has run: call Download first")

// Dataset accumulates the result of one harvest run: the raw entities as
// returned by the API and, in parallel, their flattened rows. It is
// populated by a single Download call and read thereafter for export.
type Dataset struct {
	// Spec is the query this Dataset was built for.
	Spec QuerySpec

	// Client performs the evaluate calls.
	Client *Client

	// PageDelay overrides the pacing delay between pages when positive.
	PageDelay time.Duration

	// FosDelay overrides the pacing interval between field-of-study
	// lookups when positive.
	FosDelay time.Duration

	Logger zerolog.Logger

	raw    []json.RawMessage
	rows   []Row
	fosIDs map[int64]struct{}

	foses []json.RawMessage

	downloaded  bool
	fosesLoaded bool
}

// NewDataset returns an empty Dataset for the given query.
func NewDataset(spec QuerySpec, client *Client, logger zerolog.Logger) *Dataset {
	return &Dataset{
		Spec:   spec,
		Client: client,
		Logger: logger,
		fosIDs: make(map[int64]struct{}),
	}
}

// Download runs the full pagination for the Dataset's query, accumulating
// every entity in fetch order. It may be called once; a second call fails
// with ErrAlreadyDownloaded even after a failed run. On error the entities
// fetched before the failure are retained and the error propagates.
func (d *Dataset) Download(ctx context.Context) error {
	if d.downloaded {
		return ErrAlreadyDownloaded
	}
	d.downloaded = true

	d.Logger.Info().Str("expr", d.Spec.Expr).Msg("calling the evaluate endpoint")

	p := &Paginator{
		Client:    d.Client,
		Spec:      d.Spec,
		PageDelay: d.PageDelay,
		Logger:    d.Logger,
	}
	err := p.Run(ctx, func(raw json.RawMessage, rec *Record, row Row) error {
		d.raw = append(d.raw, raw)
		d.rows = append(d.rows, row)
		for _, f := range rec.FieldsOfStudy {
			d.fosIDs[f.ID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.Logger.Info().Int("entries", len(d.rows)).Msg("download complete")
	return nil
}

// Len returns the number of entities accumulated so far.
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns the flattened entities in fetch order.
func (d *Dataset) Rows() []Row { return d.rows }

// Raw returns the raw entities in fetch order.
func (d *Dataset) Raw() []json.RawMessage { return d.raw }

// FieldsOfStudy returns the enrichment entities fetched by
// FetchFieldsOfStudy, if any.
func (d *Dataset) FieldsOfStudy() []json.RawMessage { return d.foses }

// Table is the tabular projection of a Dataset: a header of renamed
// columns and one string row per entity.
type Table struct {
	Header []string
	Rows   [][]string
}

// Table builds the tabular projection: the ordered union of row columns in
// first-appearance order, minus the prob/logprob scoring fields, renamed
// through ColumnNames. Codes outside the map keep their short form.
func (d *Dataset) Table() Table {
	var codes []string
	seen := make(map[string]bool)
	for _, row := range d.rows {
		for _, c := range row.Columns {
			if !seen[c] && !droppedColumns[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	}

	header := make([]string, len(codes))
	for i, c := range codes {
		if name, ok := ColumnNames[c]; ok {
			header[i] = name
		} else {
			header[i] = c
		}
	}

	rows := make([][]string, len(d.rows))
	for i, row := range d.rows {
		cells := make([]string, len(codes))
		for j, c := range codes {
			cells[j] = cellString(row.Values[c])
		}
		rows[i] = cells
	}
	return Table{Header: header, Rows: rows}
}

// cellString renders one flattened value for the delimited export.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		// Nested values the flattener did not touch serialize as JSON.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
