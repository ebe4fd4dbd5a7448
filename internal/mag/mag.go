// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mag harvests publication entities from the Microsoft Academic
// evaluate endpoint. It pages through results for a query expression,
// restores inverted abstracts to plain text, flattens nested author,
// journal, and field-of-study attributes into scalar columns, and exports
// the run as CSV and raw JSON.
package mag

import (
	"net/url"
	"strconv"
)

const (
	// DefaultCount is the number of entities requested per page.
	DefaultCount = 1000

	// DefaultModel is the API's internal model selector.
	DefaultModel = "latest"
)

// QuerySpec holds the parameters of one evaluate query. It is immutable
// once a download begins; the paginator derives fresh request parameters
// from it for every page.
type QuerySpec struct {
	// Expr is the query expression, passed through opaque.
	Expr string

	// Key is the subscription key.
	Key string

	// Count is the page size (default 1000).
	Count int

	// Offset is the starting offset (default 0).
	Offset int

	// Model is the API model version (default "latest").
	Model string

	// Attributes is the comma-separated attribute-code list
	// (default DefaultAttributes).
	Attributes string

	// MaxResults caps the total number of entities retrieved.
	// Zero means unbounded; the harvest then stops on the first
	// empty page.
	MaxResults int
}

func (q QuerySpec) withDefaults() QuerySpec {
	if q.Count <= 0 {
		q.Count = DefaultCount
	}
	if q.Model == "" {
		q.Model = DefaultModel
	}
	if q.Attributes == "" {
		q.Attributes = DefaultAttributes
	}
	return q
}

// params builds the request parameter set for one page. A fresh value is
// constructed per call so no state leaks between iterations.
func (q QuerySpec) params(offset int) url.Values {
	return url.Values{
		"expr":             {q.Expr},
		"offset":           {strconv.Itoa(offset)},
		"count":            {strconv.Itoa(q.Count)},
		"attributes":       {q.Attributes},
		"model":            {q.Model},
		"subscription-key": {q.Key},
	}
}
