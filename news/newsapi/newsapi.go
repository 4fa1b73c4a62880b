package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/draftmill/draftmill/models"
)

const defaultEndpoint = "https://newsapi.org/v2/everything"

// Client fetches headlines from NewsAPI's everything endpoint. Unlike the
// GDELT source there is no retry loop; NewsAPI is authenticated and a
// failure usually means a bad key or an exhausted quota, neither of which
// a retry fixes.
type Client struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

// NewClient creates a NewsAPI-backed source.
func NewClient(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		APIKey:     apiKey,
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 25 * time.Second},
	}
}

// Fetch returns the newest English articles matching query, at most limit
// of them. Descriptions come back as excerpts so sourceful prompts carry
// context even when enrichment is off.
func (c *Client) Fetch(ctx context.Context, query string, limit int) ([]models.SourceArticle, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building newsapi request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching newsapi articles: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi error: %s", resp.Status)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}

	articles := make([]models.SourceArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		articles = append(articles, models.SourceArticle{
			Title:       a.Title,
			PublishedAt: a.PublishedAt.UTC().Format("2006-01-02"),
			URL:         a.URL,
			Excerpt:     a.Description,
		})
	}
	return articles, nil
}
