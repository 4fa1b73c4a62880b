package enrich

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/models"
)

// Enricher fills source excerpts with readable text from each article
// page, to ground the draft prompt in more than a headline. A page that
// cannot be fetched or parsed just keeps an empty excerpt; enrichment
// never fails a run.
type Enricher struct {
	HTTPClient *http.Client
	MaxChars   int
	MaxBody    int64
	Logger     *log.Logger
}

// New creates an enricher with production limits.
func New() *Enricher {
	return &Enricher{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		MaxChars:   280,
		MaxBody:    2 << 20,
		Logger:     log.New(log.Writer(), "[ENRICH] ", log.LstdFlags),
	}
}

// Enrich returns the articles with excerpts filled in where possible.
func (e *Enricher) Enrich(ctx context.Context, articles []models.SourceArticle) []models.SourceArticle {
	for i := range articles {
		excerpt, err := e.excerpt(ctx, articles[i].URL)
		if err != nil {
			e.Logger.Printf("no excerpt for %s: %v", articles[i].URL, err)
			continue
		}
		articles[i].Excerpt = excerpt
	}
	return articles
}

func (e *Enricher) excerpt(ctx context.Context, link string) (string, error) {
	if strings.TrimSpace(link) == "" {
		return "", fmt.Errorf("empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, e.MaxBody), mustParseURL(link))
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	// One line, prompt-friendly.
	text := strings.Join(strings.Fields(article.TextContent), " ")
	if text == "" {
		return "", fmt.Errorf("no readable text")
	}
	return helpers.TruncateRunes(text, e.MaxChars), nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
