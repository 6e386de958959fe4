package places

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetails_RequestsContactFields(t *testing.T) {
	ts := newRecordingServer(t, func(r *http.Request, n int) string {
		return `{"status":"OK","result":{"website":"https://example.com"}}`
	})

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	resp, err := client.Details(context.Background(), testKey, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)

	ts.mu.Lock()
	req := ts.requests[0]
	ts.mu.Unlock()
	assert.Equal(t, "/details/json", req.URL.Path)
	assert.Equal(t, "p1", req.URL.Query().Get("place_id"))
	assert.Equal(t, DetailFields, req.URL.Query().Get("fields"))
	assert.Equal(t, testKey, req.URL.Query().Get("key"))
}

func TestContact(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Contact
	}{
		{
			name: "international number preferred",
			body: `{"status":"OK","result":{"formatted_phone_number":"(11) 3333-4444","international_phone_number":"+55 11 3333-4444","website":"https://a.example"}}`,
			want: Contact{Phone: "+55 11 3333-4444", Website: "https://a.example"},
		},
		{
			name: "local number fallback",
			body: `{"status":"OK","result":{"formatted_phone_number":"(11) 3333-4444"}}`,
			want: Contact{Phone: "(11) 3333-4444"},
		},
		{
			name: "no phone and no website",
			body: `{"status":"OK","result":{}}`,
			want: Contact{},
		},
		{
			name: "missing result",
			body: `{"status":"OK"}`,
			want: Contact{},
		},
		{
			name: "not found",
			body: `{"status":"NOT_FOUND"}`,
			want: Contact{},
		},
		{
			name: "denied",
			body: `{"status":"REQUEST_DENIED","error_message":"bad key","result":{"website":"https://ignored.example"}}`,
			want: Contact{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newRecordingServer(t, func(r *http.Request, n int) string {
				return tt.body
			})

			client := NewClient(ClientOpts{BaseURL: ts.URL})
			got := client.Contact(context.Background(), testKey, "p1")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, ts.count())
		})
	}
}

func TestContact_TransportFailureIsEmpty(t *testing.T) {
	client := NewClient(ClientOpts{BaseURL: "http://127.0.0.1:1"})
	got := client.Contact(context.Background(), testKey, "p1")
	assert.Equal(t, Contact{}, got)
}

func TestContact_EmptyPlaceIDSkipsRequest(t *testing.T) {
	ts := newRecordingServer(t, func(r *http.Request, n int) string {
		return `{"status":"OK","result":{"website":"https://a.example"}}`
	})

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	assert.Equal(t, Contact{}, client.Contact(context.Background(), testKey, ""))
	assert.Equal(t, 0, ts.count())
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "unknown place with valid key", body: `{"status":"INVALID_REQUEST"}`},
		{name: "not found", body: `{"status":"NOT_FOUND"}`},
		{name: "denied", body: `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newRecordingServer(t, func(r *http.Request, n int) string {
				return tt.body
			})
			client := NewClient(ClientOpts{BaseURL: ts.URL})

			err := client.CheckKey(context.Background(), testKey)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsStatus(err, StatusRequestDenied))
				assert.Contains(t, err.Error(), "invalid")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, keyCheckPlaceID, ts.query(0).Get("place_id"))
		})
	}
}

func TestCheckKey_Empty(t *testing.T) {
	client := NewClient(ClientOpts{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, client.CheckKey(context.Background(), ""))
}
