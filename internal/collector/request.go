package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raine/places-collector/internal/catalog"
)

var (
	ErrMissingAPIKey     = errors.New("missing api key")
	ErrNoMunicipalities  = errors.New("no municipalities given")
	ErrBlankMunicipality = errors.New("blank municipality")
	ErrNoCategories      = errors.New("no categories selected")
)

// UnknownCategoryError is returned when a request names a category the
// catalog does not know.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// Request describes one collection run.
type Request struct {
	Municipalities []string
	// Categories holds category ids, not display labels.
	Categories []string
	APIKey     string
}

// Validate checks the request against the catalog. It never touches the
// network.
func (r Request) Validate(cat *catalog.Catalog) error {
	if strings.TrimSpace(r.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if len(r.Municipalities) == 0 {
		return ErrNoMunicipalities
	}
	for _, m := range r.Municipalities {
		if strings.TrimSpace(m) == "" {
			return ErrBlankMunicipality
		}
	}
	if len(r.Categories) == 0 {
		return ErrNoCategories
	}
	for _, id := range r.Categories {
		if !cat.Has(id) {
			return &UnknownCategoryError{Category: id}
		}
	}
	return nil
}

// Pairs returns the number of (municipality, category) pairs of the run.
func (r Request) Pairs() int {
	return len(r.Municipalities) * len(r.Categories)
}

// ParseMunicipalities splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func ParseMunicipalities(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
