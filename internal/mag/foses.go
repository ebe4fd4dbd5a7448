// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrFosesLoaded is returned when field-of-study enrichment is requested a
// second time on the same Dataset.
var ErrFosesLoaded = errors.New("fields of study already fetched")

// DefaultFosDelay is the pacing interval between field-of-study lookups.
// These are many small single-entity requests, so they get their own
// courtesy limit.
const DefaultFosDelay = 200 * time.Millisecond

// FetchFieldsOfStudy fetches the full field-of-study entity for every
// distinct FId seen across the downloaded entities. Each lookup queries
// And(Id=<fid>, Ty='6') with count 1 and the field-of-study attribute
// list. Ids that resolve to no entity are logged and skipped. Requires a
// prior Download; may run once per Dataset.
func (d *Dataset) FetchFieldsOfStudy(ctx context.Context) error {
	if !d.downloaded {
		return ErrNotDownloaded
	}
	if d.fosesLoaded {
		return ErrFosesLoaded
	}
	d.fosesLoaded = true

	ids := make([]int64, 0, len(d.fosIDs))
	for id := range d.fosIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	d.Logger.Info().Int("unique", len(ids)).Msg("identified unique fields of study")

	delay := d.FosDelay
	if delay <= 0 {
		delay = DefaultFosDelay
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	spec := d.Spec.withDefaults()
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		params := spec.params(0)
		params.Set("expr", fmt.Sprintf("And(Id=%d, Ty='6')", id))
		params.Set("count", "1")
		params.Set("attributes", fosAttributes)

		resp, err := d.Client.FetchPage(ctx, params)
		if err != nil {
			return fmt.Errorf("fetching field of study %d: %w", id, err)
		}
		if len(resp.Entities) == 0 {
			d.Logger.Warn().Str("fid", strconv.FormatInt(id, 10)).Msg("field of study not found")
			continue
		}
		d.foses = append(d.foses, resp.Entities[0])

		if (i+1)%100 == 0 {
			d.Logger.Info().Int("fetched", i+1).Msg("fetched fields of study")
		}
	}

	d.Logger.Info().Int("fetched", len(d.foses)).Msg("field-of-study enrichment complete")
	return nil
}
