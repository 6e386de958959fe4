// Package collector runs a search over every (municipality, category) pair of
// a request and flattens the enriched results into one ResultSet.
package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/places"
	"github.com/rs/zerolog/log"
)

// Searcher returns every place for a category in a municipality. On failure
// it returns the places found before the failure together with the error.
type Searcher interface {
	Search(ctx context.Context, apiKey, municipality, category string) ([]places.Place, error)
}

// Enricher looks up contact details of a place. It must not fail.
type Enricher interface {
	Contact(ctx context.Context, apiKey, placeID string) places.Contact
}

type EventKind int

const (
	PairStarted EventKind = iota
	PairFailed
	PairFinished
)

func (k EventKind) String() string {
	switch k {
	case PairStarted:
		return "started"
	case PairFailed:
		return "failed"
	case PairFinished:
		return "finished"
	}
	return "unknown"
}

// Event reports progress of one pair. Index is 1-based.
type Event struct {
	Kind          EventKind
	Index         int
	Total         int
	Municipality  string
	Category      string
	CategoryLabel string
	// Rows is the number of rows the pair added, including partial rows of a
	// failed pair.
	Rows int
	Err  error
}

// ProgressFunc receives events synchronously from the running goroutine.
type ProgressFunc func(Event)

type Collector struct {
	searcher Searcher
	enricher Enricher
	catalog  *catalog.Catalog
	now      func() time.Time
}

func New(searcher Searcher, enricher Enricher, cat *catalog.Catalog) *Collector {
	return &Collector{
		searcher: searcher,
		enricher: enricher,
		catalog:  cat,
		now:      time.Now,
	}
}

// Run validates req and processes its pairs in order. A failing pair is
// recorded in the result set and the run moves on. The returned error is
// either a validation error, in which case no request was made, or the
// context error, in which case the partial result set is returned with it.
func (c *Collector) Run(ctx context.Context, req Request, progress ProgressFunc) (*ResultSet, error) {
	if err := req.Validate(c.catalog); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(Event) {}
	}

	rs := &ResultSet{
		RunID:     uuid.NewString(),
		StartedAt: c.now(),
	}
	logger := log.With().
		Str("runID", rs.RunID).
		Str("credential", places.Fingerprint(req.APIKey)).
		Logger()

	total := req.Pairs()
	logger.Info().
		Strs("municipalities", req.Municipalities).
		Strs("categories", req.Categories).
		Int("pairs", total).
		Msg("collection started")

	index := 0
	for _, municipality := range req.Municipalities {
		for _, category := range req.Categories {
			if err := ctx.Err(); err != nil {
				rs.FinishedAt = c.now()
				logger.Warn().Err(err).Int("rows", len(rs.Rows)).Msg("collection cancelled")
				return rs, err
			}
			index++

			ev := Event{
				Index:         index,
				Total:         total,
				Municipality:  municipality,
				Category:      category,
				CategoryLabel: c.catalog.Label(category),
			}
			ev.Kind = PairStarted
			progress(ev)

			found, err := c.searcher.Search(ctx, req.APIKey, municipality, category)
			for _, p := range found {
				rs.Rows = append(rs.Rows, c.row(ctx, req.APIKey, municipality, category, p))
			}
			ev.Rows = len(found)

			// A search cut short by cancellation is not an upstream failure.
			if err != nil && ctx.Err() != nil {
				rs.FinishedAt = c.now()
				logger.Warn().
					Err(err).
					Str("municipality", municipality).
					Str("category", category).
					Int("rows", len(rs.Rows)).
					Msg("collection cancelled during search")
				return rs, ctx.Err()
			}

			if err != nil {
				logger.Warn().
					Err(err).
					Str("municipality", municipality).
					Str("category", category).
					Int("partial", len(found)).
					Msg("search failed")
				rs.Failures = append(rs.Failures, PairFailure{
					Municipality: municipality,
					Category:     category,
					Err:          err,
				})
				ev.Kind = PairFailed
				ev.Err = err
				progress(ev)
				continue
			}

			logger.Debug().
				Str("municipality", municipality).
				Str("category", category).
				Int("rows", len(found)).
				Msg("pair finished")
			ev.Kind = PairFinished
			progress(ev)
		}
	}

	rs.FinishedAt = c.now()
	logger.Info().
		Int("rows", len(rs.Rows)).
		Int("failures", len(rs.Failures)).
		Dur("took", rs.Duration()).
		Msg("collection finished")

	return rs, nil
}

func (c *Collector) row(ctx context.Context, apiKey, municipality, category string, p places.Place) Row {
	contact := c.enricher.Contact(ctx, apiKey, p.PlaceID)
	return Row{
		Municipality:  municipality,
		PlaceID:       p.PlaceID,
		Name:          p.Name,
		Address:       p.FormattedAddress,
		Rating:        p.Rating,
		Category:      category,
		CategoryLabel: c.catalog.Label(category),
		Phone:         contact.Phone,
		Website:       contact.Website,
	}
}
