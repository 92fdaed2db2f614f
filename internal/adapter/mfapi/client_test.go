package mfapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/navflow-backend/internal/domain"
)

// requestLog records request paths seen by a test server
type requestLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *requestLog) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.mu.Lock()
		log.paths = append(log.paths, r.URL.Path)
		log.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func TestHistory_ParsesStringAndNumberValues(t *testing.T) {
	srv, paths := newTestServer(t, http.StatusOK, `{
		"meta": {"scheme_code": 122639, "scheme_name": "Parag Parikh Flexi Cap Fund - Direct Plan - Growth"},
		"data": [
			{"date": "03-01-2024", "nav": "66.12340"},
			{"date": "02-01-2024", "nav": 65.5}
		],
		"status": "SUCCESS"
	}`)
	client := NewClient(WithBaseURL(srv.URL + "/"))

	points, err := client.History(context.Background(), "122639")

	require.NoError(t, err)
	assert.Equal(t, []string{"/mf/122639"}, paths.Paths())
	require.Len(t, points, 2)
	assert.Equal(t, domain.NewDate(2024, time.January, 3), points[0].Date)
	assert.True(t, points[0].NAV.Equal(decimal.RequireFromString("66.1234")))
	assert.Equal(t, domain.NewDate(2024, time.January, 2), points[1].Date)
	assert.True(t, points[1].NAV.Equal(decimal.RequireFromString("65.5")))
}

func TestHistory_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "Server error is a transport failure",
			status:  http.StatusInternalServerError,
			body:    "boom",
			wantErr: domain.ErrTransport,
		},
		{
			name:    "Not found is a transport failure",
			status:  http.StatusNotFound,
			body:    "",
			wantErr: domain.ErrTransport,
		},
		{
			name:    "Invalid JSON is malformed",
			status:  http.StatusOK,
			body:    "<html>",
			wantErr: domain.ErrMalformedResponse,
		},
		{
			name:    "Missing data is malformed",
			status:  http.StatusOK,
			body:    `{"meta": {}, "status": "SUCCESS"}`,
			wantErr: domain.ErrMalformedResponse,
		},
		{
			name:    "Empty data is malformed",
			status:  http.StatusOK,
			body:    `{"meta": {}, "data": [], "status": "SUCCESS"}`,
			wantErr: domain.ErrMalformedResponse,
		},
		{
			name:    "Bad date rejects the whole response",
			status:  http.StatusOK,
			body:    `{"data": [{"date": "03-01-2024", "nav": "1"}, {"date": "2024-01-02", "nav": "1"}]}`,
			wantErr: domain.ErrMalformedResponse,
		},
		{
			name:    "Bad value rejects the whole response",
			status:  http.StatusOK,
			body:    `{"data": [{"date": "03-01-2024", "nav": "N.A."}]}`,
			wantErr: domain.ErrMalformedResponse,
		},
		{
			name:    "Negative value rejects the whole response",
			status:  http.StatusOK,
			body:    `{"data": [{"date": "03-01-2024", "nav": "-1.5"}]}`,
			wantErr: domain.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			client := NewClient(WithBaseURL(srv.URL))

			points, err := client.History(context.Background(), "1")

			assert.Nil(t, points)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestHistory_APIErrorDetails(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, "upstream down")
	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.History(context.Background(), "42")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "/mf/42", apiErr.Endpoint)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestHistory_UnreachableHost(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "{}")
	srv.Close()
	client := NewClient(WithBaseURL(srv.URL), WithTimeout(time.Second))

	_, err := client.History(context.Background(), "1")

	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestHistory_CancelledContext(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "{}")
	client := NewClient(WithBaseURL(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.History(ctx, "1")

	assert.Error(t, err)
}

func TestSchemes(t *testing.T) {
	srv, paths := newTestServer(t, http.StatusOK, `[
		{"schemeCode": 100027, "schemeName": "Grindlays Super Saver Income Fund-GSSIF-Half Yearly Dividend"},
		{"schemeCode": "122639", "schemeName": "Parag Parikh Flexi Cap Fund - Direct Plan - Growth"}
	]`)
	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(100))

	schemes, err := client.Schemes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"/mf"}, paths.Paths())
	assert.Equal(t, []domain.SchemeSummary{
		{Code: "100027", Name: "Grindlays Super Saver Income Fund-GSSIF-Half Yearly Dividend"},
		{Code: "122639", Name: "Parag Parikh Flexi Cap Fund - Direct Plan - Growth"},
	}, schemes)
}

func TestSchemes_Malformed(t *testing.T) {
	for _, body := range []string{`[]`, `[{"schemeName": "no code"}]`, `{"not": "a list"}`} {
		srv, _ := newTestServer(t, http.StatusOK, body)
		client := NewClient(WithBaseURL(srv.URL))

		_, err := client.Schemes(context.Background())

		assert.True(t, errors.Is(err, domain.ErrMalformedResponse), "body %s: %v", body, err)
	}
}
