// Package catalog holds the place categories offered for search.
//
// Category identifiers are Google Places types (e.g. "restaurant") and are what
// gets sent upstream. Display labels are what users pick from and what ends up
// in the exported spreadsheet. The table is embedded in the binary, parsed once
// at startup and never mutated afterwards; callers receive a *Catalog and pass
// it to whoever needs lookups.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Locale selects which labels a catalog exposes.
type Locale string

const (
	// LocaleIdentity uses the category identifier as its own label.
	LocaleIdentity Locale = "identity"
	// LocalePT uses Portuguese labels.
	LocalePT Locale = "pt"
)

// ParseLocale parses a locale name. Empty defaults to Portuguese.
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pt", "pt-br":
		return LocalePT, nil
	case "id", "identity":
		return LocaleIdentity, nil
	default:
		return "", fmt.Errorf("unknown category locale %q", s)
	}
}

// Category is a single searchable place type.
type Category struct {
	ID    string
	Label string
}

// Catalog is an immutable bidirectional id <-> label table.
type Catalog struct {
	categories []Category
	byID       map[string]string
	byLabel    map[string]string
}

type rawCategory struct {
	ID string `yaml:"id"`
	PT string `yaml:"pt"`
}

// Load builds a catalog from the embedded category table.
func Load(locale Locale) (*Catalog, error) {
	var raw []rawCategory
	if err := yaml.Unmarshal(categoriesYAML, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse category table: %w", err)
	}

	categories := make([]Category, 0, len(raw))
	for _, r := range raw {
		label := r.ID
		if locale == LocalePT {
			label = r.PT
		}
		categories = append(categories, Category{ID: r.ID, Label: label})
	}

	return New(categories)
}

// MustLoad is like Load but panics on error. The embedded table is part of the
// binary, so a failure here is a build defect.
func MustLoad(locale Locale) *Catalog {
	c, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog from the given categories, preserving their order.
// Identifiers and labels must be non-empty and unique.
func New(categories []Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		byID:       make(map[string]string, len(categories)),
		byLabel:    make(map[string]string, len(categories)),
	}

	for _, cat := range categories {
		id := strings.TrimSpace(cat.ID)
		label := strings.TrimSpace(cat.Label)
		if id == "" || label == "" {
			return nil, fmt.Errorf("category %q has an empty id or label", cat.ID)
		}
		if _, ok := c.byID[id]; ok {
			return nil, fmt.Errorf("duplicate category id %q", id)
		}
		if other, ok := c.byLabel[label]; ok {
			return nil, fmt.Errorf("categories %q and %q share label %q", other, id, label)
		}
		c.byID[id] = label
		c.byLabel[label] = id
		c.categories = append(c.categories, Category{ID: id, Label: label})
	}

	return c, nil
}

// Label returns the display label for id. Unknown ids are returned unchanged.
func (c *Catalog) Label(id string) string {
	if label, ok := c.byID[id]; ok {
		return label
	}
	return id
}

// ID returns the identifier for a display label.
func (c *Catalog) ID(label string) (string, bool) {
	id, ok := c.byLabel[label]
	return id, ok
}

// Has reports whether id is a known category.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// Categories returns a copy of all categories in table order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// IDs returns all category identifiers in table order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.categories))
	for i, cat := range c.categories {
		ids[i] = cat.ID
	}
	return ids
}

// Resolve maps user-supplied tokens (identifiers or labels, case-insensitive)
// to identifiers. The special token "all" selects every category.
func (c *Catalog) Resolve(tokens []string) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.EqualFold(tok, "all") || strings.EqualFold(tok, "todos") {
			return c.IDs(), nil
		}
		id, ok := c.lookupFold(tok)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", tok)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Catalog) lookupFold(tok string) (string, bool) {
	if c.Has(tok) {
		return tok, true
	}
	if id, ok := c.ID(tok); ok {
		return id, true
	}
	for _, cat := range c.categories {
		if strings.EqualFold(cat.ID, tok) || strings.EqualFold(cat.Label, tok) {
			return cat.ID, true
		}
	}
	return "", false
}
