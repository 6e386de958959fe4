package collector

import (
	"time"

	"github.com/raine/places-collector/internal/places"
)

// Row is one place in the flattened result set.
type Row struct {
	Municipality  string
	PlaceID       string
	Name          string
	Address       string
	Rating        *float64
	Category      string
	CategoryLabel string
	Phone         string
	Website       string
}

// MapLink returns the Google Maps link of the row's place.
func (r Row) MapLink() string {
	return places.MapLink(r.PlaceID)
}

// PairFailure records a search that failed for one pair.
type PairFailure struct {
	Municipality string
	Category     string
	Err          error
}

type ResultSet struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []Row
	Failures   []PairFailure
}

// Summary holds row counts of a finished run.
type Summary struct {
	Rows           int
	WithPhone      int
	WithWebsite    int
	Failures       int
	ByMunicipality map[string]int
	ByCategory     map[string]int
}

// Summary counts rows per municipality and per category label.
func (rs *ResultSet) Summary() Summary {
	s := Summary{
		Rows:           len(rs.Rows),
		Failures:       len(rs.Failures),
		ByMunicipality: make(map[string]int),
		ByCategory:     make(map[string]int),
	}
	for _, row := range rs.Rows {
		s.ByMunicipality[row.Municipality]++
		s.ByCategory[row.CategoryLabel]++
		if row.Phone != "" {
			s.WithPhone++
		}
		if row.Website != "" {
			s.WithWebsite++
		}
	}
	return s
}

// Duration returns how long the run took.
func (rs *ResultSet) Duration() time.Duration {
	if rs.FinishedAt.IsZero() {
		return 0
	}
	return rs.FinishedAt.Sub(rs.StartedAt)
}
