package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	ApiBaseUrl = "https://maps.googleapis.com/maps/api/place"

	// DefaultPageDelay is how long a continuation token needs before it
	// becomes valid upstream.
	DefaultPageDelay = 2 * time.Second

	// DefaultMaxPages matches the upstream limit of 60 results (3 x 20).
	DefaultMaxPages = 3

	DefaultTimeout = 30 * time.Second
)

type ClientOpts struct {
	BaseURL  string
	Language string
	Timeout  time.Duration

	// PageDelay is waited before every continuation request.
	PageDelay time.Duration
	// MaxPages caps pages fetched per query. Zero means DefaultMaxPages.
	MaxPages int
	// MaxRPS paces upstream requests. Zero or less disables pacing.
	MaxRPS float64
	// Sleeper waits out PageDelay. Defaults to a context-aware timer.
	Sleeper Sleeper
}

// Client talks to the Places Text Search and Place Details endpoints. The API
// key is passed per call since it belongs to whoever started the run.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	language   string
	pageDelay  time.Duration
	maxPages   int
	limiter    *rate.Limiter
	sleeper    Sleeper
}

func NewClient(opts ClientOpts) *Client {
	c := Client{
		baseURL:   ApiBaseUrl,
		language:  opts.Language,
		pageDelay: DefaultPageDelay,
		maxPages:  DefaultMaxPages,
		sleeper:   TimerSleeper,
	}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.PageDelay > 0 {
		c.pageDelay = opts.PageDelay
	}
	if opts.MaxPages > 0 {
		c.maxPages = opts.MaxPages
	}
	if opts.Sleeper != nil {
		c.sleeper = opts.Sleeper
	}
	if opts.MaxRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), 1)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(c.baseURL).
		SetTimeout(timeout).
		SetHeaders(
			map[string]string{
				"Accept":     "application/json",
				"User-Agent": "places-collector/1.0",
			},
		)

	return &c
}

// PageDelay returns the wait applied between pages.
func (c *Client) PageDelay() time.Duration {
	return c.pageDelay
}

// MaxPages returns the page cap per query.
func (c *Client) MaxPages() int {
	return c.maxPages
}

func (c *Client) req(ctx context.Context, apiKey string, result any) (*resty.Request, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	request := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetQueryParam("key", apiKey)

	if c.language != "" {
		request.SetQueryParam("language", c.language)
	}
	if result != nil {
		request.SetResult(result)
	}

	return request, nil
}

// get issues a GET with the given query parameters and decodes the JSON body
// into result.
func (c *Client) get(ctx context.Context, apiKey, path string, params map[string]string, result any) error {
	request, err := c.req(ctx, apiKey, result)
	if err != nil {
		return err
	}

	_, err = handleError(request.SetQueryParams(params).Get(path))
	if err != nil {
		return redactError(err, apiKey)
	}
	return nil
}

// handleError is a generic error handler for failing response (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}

// StatusError is returned when the API answers with a status other than the
// accepted ones for the endpoint.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("places api status %s", e.Status)
	}
	return fmt.Sprintf("places api status %s: %s", e.Status, e.Message)
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status string) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
