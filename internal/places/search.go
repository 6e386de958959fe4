package places

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// TextSearch fetches the first page of results for a free-text query.
func (c *Client) TextSearch(ctx context.Context, apiKey, query string) (*TextSearchResponse, error) {
	result := &TextSearchResponse{}
	err := c.get(ctx, apiKey, "/textsearch/json", map[string]string{
		"query": query,
	}, result)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return result, nil
}

// NextPage fetches the page behind a continuation token. Only the token and
// the key are sent; the token alone identifies the query upstream.
func (c *Client) NextPage(ctx context.Context, apiKey, pageToken string) (*TextSearchResponse, error) {
	result := &TextSearchResponse{}
	request, err := c.req(ctx, apiKey, result)
	if err != nil {
		return nil, fmt.Errorf("text search page: %w", err)
	}
	// The language param is dropped too: the token carries the original query.
	request.QueryParam.Del("language")

	_, err = handleError(request.SetQueryParam("pagetoken", pageToken).Get("/textsearch/json"))
	if err != nil {
		return nil, fmt.Errorf("text search page: %w", redactError(err, apiKey))
	}
	return result, nil
}

// Pager walks the pages of one text search. It is used like bufio.Scanner:
//
//	p := client.NewPager(key, query)
//	for p.Next(ctx) {
//		use(p.Places())
//	}
//	if err := p.Err(); err != nil { ... }
//
// A Pager is single use.
type Pager struct {
	client *Client
	apiKey string
	query  string

	pages  int
	token  string
	seen   map[string]bool
	places []Place
	done   bool
	err    error
}

// NewPager creates a pager for query.
func (c *Client) NewPager(apiKey, query string) *Pager {
	return &Pager{
		client: c,
		apiKey: apiKey,
		query:  query,
		seen:   make(map[string]bool),
	}
}

// Next fetches the next page. It returns false when there are no more pages or
// an error occurred; check Err afterwards.
func (p *Pager) Next(ctx context.Context) bool {
	p.places = nil
	if p.done || p.err != nil {
		return false
	}

	if p.pages > 0 && p.token == "" {
		p.done = true
		return false
	}

	if p.pages >= p.client.maxPages {
		log.Warn().
			Str("query", p.query).
			Int("pages", p.pages).
			Msg("page cap reached, dropping remaining pages")
		p.done = true
		return false
	}

	var resp *TextSearchResponse
	var err error
	if p.pages == 0 {
		resp, err = p.client.TextSearch(ctx, p.apiKey, p.query)
	} else {
		if err := p.client.sleeper.Sleep(ctx, p.client.pageDelay); err != nil {
			p.err = err
			return false
		}
		resp, err = p.client.NextPage(ctx, p.apiKey, p.token)
	}
	p.pages++

	if err != nil {
		p.err = err
		return false
	}

	if resp.Status != StatusOK && resp.Status != StatusZeroResults {
		p.err = &StatusError{Status: resp.Status, Message: resp.ErrorMessage}
		return false
	}

	p.places = resp.Results
	p.token = resp.NextPageToken

	if p.token != "" {
		if p.seen[p.token] {
			log.Warn().Str("query", p.query).Int("page", p.pages).Msg("continuation token repeated, stopping")
			p.token = ""
		} else {
			p.seen[p.token] = true
		}
	}

	log.Debug().
		Str("query", p.query).
		Int("page", p.pages).
		Int("results", len(p.places)).
		Bool("more", p.token != "").
		Msg("fetched search page")

	return true
}

// Places returns the results of the page fetched by the last Next call.
func (p *Pager) Places() []Place {
	return p.places
}

// Pages returns how many requests the pager has issued.
func (p *Pager) Pages() int {
	return p.pages
}

// Err returns the error that stopped the pager, if any.
func (p *Pager) Err() error {
	return p.err
}

// Search runs the text search for a category in a municipality and follows
// continuation tokens. On failure it returns the places gathered before the
// failing page together with the error.
func (c *Client) Search(ctx context.Context, apiKey, municipality, category string) ([]Place, error) {
	query := QueryFor(category, municipality)
	pager := c.NewPager(apiKey, query)

	var all []Place
	for pager.Next(ctx) {
		all = append(all, pager.Places()...)
	}
	if err := pager.Err(); err != nil {
		return all, err
	}
	return all, nil
}
