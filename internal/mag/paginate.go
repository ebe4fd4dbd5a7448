// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPageDelay is the fixed courtesy pause between processing one page
// and fetching the next. It is not adaptive backoff.
const DefaultPageDelay = 3100 * time.Millisecond

// Paginator drives repeated evaluate calls for one QuerySpec, advancing
// the offset by the page size each iteration and emitting entities one at
// a time as they decode.
//
// Termination policy: the harvest stops on the first empty entity batch.
// When MaxResults is set it additionally truncates the stream at the cap,
// but the empty batch remains the authoritative end-of-data signal; no
// remaining-results counter is decremented.
type Paginator struct {
	Client *Client
	Spec   QuerySpec

	// PageDelay overrides DefaultPageDelay when positive. Tests set it
	// to a small value to avoid real sleeps.
	PageDelay time.Duration

	Logger zerolog.Logger
}

// Run fetches pages until the termination condition and calls emit for
// every entity, in fetch order, as soon as it is decoded and flattened.
// Entities already emitted are kept by the consumer when a later page
// fails; the error propagates unretried. Cancellation is honored at the
// page boundary and during the pacing wait.
func (p *Paginator) Run(ctx context.Context, emit func(raw json.RawMessage, rec *Record, row Row) error) error {
	spec := p.Spec.withDefaults()
	delay := p.PageDelay
	if delay <= 0 {
		delay = DefaultPageDelay
	}

	offset := spec.Offset
	total := 0
	for {
		resp, err := p.Client.FetchPage(ctx, spec.params(offset))
		if err != nil {
			return fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}
		if len(resp.Entities) == 0 {
			p.Logger.Info().Int("entries", total).Msg("no more entities; harvest complete")
			return nil
		}

		for _, raw := range resp.Entities {
			rec := &Record{}
			if err := json.Unmarshal(raw, rec); err != nil {
				return fmt.Errorf("decoding entity at offset %d: %w", offset, err)
			}
			if err := emit(raw, rec, rec.Flatten()); err != nil {
				return err
			}
			total++
			if spec.MaxResults > 0 && total >= spec.MaxResults {
				p.Logger.Info().Int("entries", total).Msg("result cap reached")
				return nil
			}
		}
		p.Logger.Info().Int("entries", total).Msg("fetched entries")

		// The offset advances by the page size, not by the number of
		// entities the page actually held.
		offset += spec.Count

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
