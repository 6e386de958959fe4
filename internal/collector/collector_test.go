package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/places"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type searcherMock struct {
	mock.Mock
}

func (m *searcherMock) Search(ctx context.Context, apiKey, municipality, category string) ([]places.Place, error) {
	args := m.Called(ctx, apiKey, municipality, category)
	found, _ := args.Get(0).([]places.Place)
	return found, args.Error(1)
}

type enricherMock struct {
	mock.Mock
}

func (m *enricherMock) Contact(ctx context.Context, apiKey, placeID string) places.Contact {
	args := m.Called(ctx, apiKey, placeID)
	return args.Get(0).(places.Contact)
}

func ptr(f float64) *float64 { return &f }

func collect(events *[]Event) ProgressFunc {
	return func(ev Event) {
		*events = append(*events, ev)
	}
}

func TestRun_EndToEndSaoPaulo(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/textsearch/json":
			assert.Equal(t, "restaurant em São Paulo", r.URL.Query().Get("query"))
			w.Write([]byte(`{"status":"OK","results":[
				{"place_id":"p1","name":"Cantina","formatted_address":"Rua A, 1","rating":4.6},
				{"place_id":"p2","name":"Bistrô","formatted_address":"Rua B, 2"}
			]}`))
		case "/details/json":
			switch r.URL.Query().Get("place_id") {
			case "p1":
				w.Write([]byte(`{"status":"OK","result":{"international_phone_number":"+551111"}}`))
			default:
				w.Write([]byte(`{"status":"OK","result":{}}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	client := places.NewClient(places.ClientOpts{
		BaseURL: ts.URL,
		Sleeper: places.SleeperFunc(func(ctx context.Context, d time.Duration) error { return nil }),
	})
	cat := catalog.MustLoad(catalog.LocalePT)
	c := New(client, client, cat)

	rs, err := c.Run(context.Background(), Request{
		Municipalities: []string{"São Paulo"},
		Categories:     []string{"restaurant"},
		APIKey:         "test-key",
	}, nil)
	require.NoError(t, err)

	require.Len(t, rs.Rows, 2)
	assert.Empty(t, rs.Failures)
	assert.NotEmpty(t, rs.RunID)
	assert.Equal(t, int32(3), requests.Load())

	first, second := rs.Rows[0], rs.Rows[1]
	assert.Equal(t, "+551111", first.Phone)
	assert.Equal(t, "", second.Phone)
	assert.Equal(t, "Restaurante", first.CategoryLabel)
	assert.Equal(t, cat.Label("restaurant"), second.CategoryLabel)
	assert.Contains(t, first.MapLink(), "place_id:p1")
	assert.Contains(t, second.MapLink(), "place_id:p2")
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.6, *first.Rating)
	assert.Nil(t, second.Rating)
	assert.Equal(t, "São Paulo", first.Municipality)
}

func TestRun_RejectsInvalidRequestBeforeAnyCall(t *testing.T) {
	cat := catalog.MustLoad(catalog.LocalePT)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			name: "no categories",
			req:  Request{Municipalities: []string{"Recife"}, APIKey: "k"},
			want: ErrNoCategories,
		},
		{
			name: "no municipalities",
			req:  Request{Categories: []string{"bakery"}, APIKey: "k"},
			want: ErrNoMunicipalities,
		},
		{
			name: "blank municipality",
			req:  Request{Municipalities: []string{"Recife", " "}, Categories: []string{"bakery"}, APIKey: "k"},
			want: ErrBlankMunicipality,
		},
		{
			name: "no key",
			req:  Request{Municipalities: []string{"Recife"}, Categories: []string{"bakery"}, APIKey: "  "},
			want: ErrMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(searcherMock)
			enricher := new(enricherMock)
			c := New(searcher, enricher, cat)

			var events []Event
			rs, err := c.Run(context.Background(), tt.req, collect(&events))

			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, rs)
			assert.Empty(t, events)
			searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			enricher.AssertNotCalled(t, "Contact", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRun_UnknownCategory(t *testing.T) {
	searcher := new(searcherMock)
	c := New(searcher, new(enricherMock), catalog.MustLoad(catalog.LocalePT))

	_, err := c.Run(context.Background(), Request{
		Municipalities: []string{"Recife"},
		Categories:     []string{"bakery", "spaceport"},
		APIKey:         "k",
	}, nil)

	var unknown *UnknownCategoryError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "spaceport", unknown.Category)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_PairOrderAndFailures(t *testing.T) {
	ctx := context.Background()
	searcher := new(searcherMock)
	enricher := new(enricherMock)

	searcher.On("Search", ctx, "k", "Recife", "bakery").
		Return([]places.Place{{PlaceID: "r1", Name: "Padaria 1"}}, nil)
	searcher.On("Search", ctx, "k", "Recife", "cafe").
		Return([]places.Place{{PlaceID: "r2"}}, &places.StatusError{Status: places.StatusOverQueryLimit})
	searcher.On("Search", ctx, "k", "Olinda", "bakery").
		Return([]places.Place(nil), nil)
	searcher.On("Search", ctx, "k", "Olinda", "cafe").
		Return([]places.Place{{PlaceID: "o1", Rating: ptr(4.1)}, {PlaceID: "o2"}}, nil)

	enricher.On("Contact", ctx, "k", "r1").Return(places.Contact{Phone: "+55 81 1"})
	enricher.On("Contact", ctx, "k", mock.Anything).Return(places.Contact{})

	c := New(searcher, enricher, catalog.MustLoad(catalog.LocalePT))

	var events []Event
	rs, err := c.Run(ctx, Request{
		Municipalities: []string{"Recife", "Olinda"},
		Categories:     []string{"bakery", "cafe"},
		APIKey:         "k",
	}, collect(&events))
	require.NoError(t, err)

	ids := make([]string, len(rs.Rows))
	for i, row := range rs.Rows {
		ids[i] = row.PlaceID
	}
	assert.Equal(t, []string{"r1", "r2", "o1", "o2"}, ids)
	assert.Equal(t, "+55 81 1", rs.Rows[0].Phone)
	assert.Equal(t, "Padaria", rs.Rows[0].CategoryLabel)

	require.Len(t, rs.Failures, 1)
	assert.Equal(t, "Recife", rs.Failures[0].Municipality)
	assert.Equal(t, "cafe", rs.Failures[0].Category)
	assert.True(t, places.IsStatus(rs.Failures[0].Err, places.StatusOverQueryLimit))

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []EventKind{
		PairStarted, PairFinished,
		PairStarted, PairFailed,
		PairStarted, PairFinished,
		PairStarted, PairFinished,
	}, kinds)

	failed := events[3]
	assert.Equal(t, 2, failed.Index)
	assert.Equal(t, 4, failed.Total)
	assert.Equal(t, 1, failed.Rows)
	assert.Error(t, failed.Err)

	last := events[len(events)-1]
	assert.Equal(t, 4, last.Index)
	assert.Equal(t, 2, last.Rows)
	assert.Equal(t, "Olinda", last.Municipality)

	searcher.AssertNumberOfCalls(t, "Search", 4)
	enricher.AssertNumberOfCalls(t, "Contact", 4)
}

func TestRun_CancelledBetweenPairs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searcher := new(searcherMock)
	searcher.On("Search", mock.Anything, "k", "Recife", "bakery").
		Run(func(args mock.Arguments) { cancel() }).
		Return([]places.Place{{PlaceID: "r1"}}, nil)

	enricher := new(enricherMock)
	enricher.On("Contact", mock.Anything, "k", "r1").Return(places.Contact{})

	c := New(searcher, enricher, catalog.MustLoad(catalog.LocalePT))
	rs, err := c.Run(ctx, Request{
		Municipalities: []string{"Recife", "Olinda"},
		Categories:     []string{"bakery"},
		APIKey:         "k",
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rs)
	assert.Len(t, rs.Rows, 1)
	assert.False(t, rs.FinishedAt.IsZero())
	searcher.AssertNumberOfCalls(t, "Search", 1)
}

func TestRun_CancelledDuringPair(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searcher := new(searcherMock)
	searcher.On("Search", mock.Anything, "k", "Recife", "bakery").
		Run(func(args mock.Arguments) { cancel() }).
		Return([]places.Place{{PlaceID: "r1"}}, fmt.Errorf("text search page: %w", context.Canceled))

	enricher := new(enricherMock)
	enricher.On("Contact", mock.Anything, "k", "r1").Return(places.Contact{})

	c := New(searcher, enricher, catalog.MustLoad(catalog.LocalePT))

	var events []Event
	rs, err := c.Run(ctx, Request{
		Municipalities: []string{"Recife", "Olinda"},
		Categories:     []string{"bakery"},
		APIKey:         "k",
	}, collect(&events))

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rs)
	assert.Len(t, rs.Rows, 1)
	assert.Empty(t, rs.Failures)
	require.Len(t, events, 1)
	assert.Equal(t, PairStarted, events[0].Kind)
	searcher.AssertNumberOfCalls(t, "Search", 1)
}

func TestParseMunicipalities(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"São Paulo", []string{"São Paulo"}},
		{"São Paulo, Rio de Janeiro", []string{"São Paulo", "Rio de Janeiro"}},
		{" Recife ,, Olinda ,", []string{"Recife", "Olinda"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMunicipalities(tt.in), tt.in)
	}
}

func TestResultSetSummary(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rs := &ResultSet{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Rows: []Row{
			{Municipality: "Recife", CategoryLabel: "Padaria", Phone: "1"},
			{Municipality: "Recife", CategoryLabel: "Café", Website: "https://x"},
			{Municipality: "Olinda", CategoryLabel: "Padaria", Phone: "2", Website: "https://y"},
		},
		Failures: []PairFailure{{Municipality: "Olinda", Category: "cafe", Err: errors.New("boom")}},
	}

	s := rs.Summary()
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.WithPhone)
	assert.Equal(t, 2, s.WithWebsite)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, map[string]int{"Recife": 2, "Olinda": 1}, s.ByMunicipality)
	assert.Equal(t, map[string]int{"Padaria": 2, "Café": 1}, s.ByCategory)
	assert.Equal(t, 90*time.Second, rs.Duration())
}

func TestRowMapLink(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps/place/?q=place_id:abc", Row{PlaceID: "abc"}.MapLink())
	assert.Equal(t, "", Row{}.MapLink())
}
