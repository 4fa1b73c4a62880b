package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMapsArticles(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":2,"articles":[
			{"source":{"name":"Example"},"title":"Fed pauses","description":"The Fed held rates.","url":"https://example.com/a","publishedAt":"2025-08-12T13:30:00Z"},
			{"source":{"name":"Example"},"title":"Markets rally","description":"","url":"https://example.com/b","publishedAt":"2025-08-11T09:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	articles, err := NewClient("sk-test", srv.URL).Fetch(context.Background(), "US stock market", 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Fed pauses", articles[0].Title)
	assert.Equal(t, "2025-08-12", articles[0].PublishedAt)
	assert.Equal(t, "https://example.com/a", articles[0].URL)
	assert.Equal(t, "The Fed held rates.", articles[0].Excerpt)

	assert.Equal(t, "sk-test", gotKey)
	assert.Contains(t, gotQuery, "q=US+stock+market")
	assert.Contains(t, gotQuery, "pageSize=10")
	assert.Contains(t, gotQuery, "sortBy=publishedAt")
	assert.Contains(t, gotQuery, "language=en")
}

func TestFetchSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("bad-key", srv.URL).Fetch(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newsapi error")
}

func TestFetchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	}))
	defer srv.Close()

	articles, err := NewClient("sk-test", srv.URL).Fetch(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestNewClientDefaultEndpoint(t *testing.T) {
	c := NewClient("sk-test", "")
	assert.Equal(t, defaultEndpoint, c.Endpoint)
}
