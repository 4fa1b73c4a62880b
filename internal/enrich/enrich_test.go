package enrich

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmill/draftmill/models"
)

const articlePage = `<!doctype html>
<html><head><title>Fed pauses</title></head>
<body>
<article>
  <h1>Fed pauses</h1>
  <p>The Federal Reserve held its benchmark rate steady on Wednesday, pausing a two
  year tightening campaign. Officials pointed to cooling inflation and a softer labor
  market as reasons to wait for more data before the next move. Markets rallied on the
  announcement, with rate sensitive sectors leading the gains through the close.</p>
  <p>Economists now expect the first cut no earlier than December, though several banks
  still forecast an extended hold into next year given sticky services inflation.</p>
</article>
</body></html>`

func testEnricher() *Enricher {
	e := New()
	e.Logger = log.New(io.Discard, "", 0)
	return e
}

func TestEnrichFillsExcerpt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	articles := testEnricher().Enrich(context.Background(), []models.SourceArticle{
		{Title: "Fed pauses", URL: srv.URL},
	})

	require.Len(t, articles, 1)
	excerpt := articles[0].Excerpt
	require.NotEmpty(t, excerpt)
	assert.Contains(t, excerpt, "Federal Reserve")
	assert.NotContains(t, excerpt, "\n", "excerpt must be a single line")
	assert.LessOrEqual(t, utf8.RuneCountInString(excerpt), 280)
}

func TestEnrichDegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	articles := testEnricher().Enrich(context.Background(), []models.SourceArticle{
		{Title: "Gone", URL: srv.URL},
		{Title: "No URL", URL: ""},
	})

	require.Len(t, articles, 2)
	assert.Empty(t, articles[0].Excerpt)
	assert.Empty(t, articles[1].Excerpt)
}

func TestEnrichMixedResults(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, articlePage)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	articles := testEnricher().Enrich(context.Background(), []models.SourceArticle{
		{Title: "A", URL: bad.URL},
		{Title: "B", URL: good.URL},
	})

	assert.Empty(t, articles[0].Excerpt)
	assert.NotEmpty(t, articles[1].Excerpt)
}

func TestExcerptCapsLength(t *testing.T) {
	long := "<html><body><article><p>" + strings.Repeat("inflation data surprised forecasters again. ", 40) + "</p></article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, long)
	}))
	defer srv.Close()

	e := testEnricher()
	excerpt, err := e.excerpt(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 280, utf8.RuneCountInString(excerpt))
}
