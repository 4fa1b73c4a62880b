package gdelt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/draftmill/draftmill/models"
)

// DefaultEndpoint is the GDELT 2.0 document API.
const DefaultEndpoint = "https://api.gdeltproject.org/api/v2/doc/doc"

type response struct {
	Articles []models.SourceArticle `json:"articles"`
}

// Client fetches recent articles from the GDELT document API.
//
// The API is flaky under load and sometimes answers 200 with an HTML error
// page, so every attempt that fails to yield decodable JSON counts as a
// miss. After Attempts misses the client gives up and returns an empty
// list; a run with no sources is "nothing to do", not a failure.
type Client struct {
	Endpoint   string
	Attempts   int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient creates a GDELT client with the production retry settings.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint:   endpoint,
		Attempts:   4,
		Backoff:    5 * time.Second,
		HTTPClient: &http.Client{Timeout: 25 * time.Second},
		Logger:     log.New(log.Writer(), "[GDELT] ", log.LstdFlags),
	}
}

// Fetch queries for the newest articles matching query, at most limit of
// them. Exhausted retries degrade to an empty result.
func (c *Client) Fetch(ctx context.Context, query string, limit int) ([]models.SourceArticle, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "artlist")
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(limit))
	params.Set("sort", "datedesc")
	reqURL := fmt.Sprintf("%s?%s", c.Endpoint, params.Encode())

	for attempt := 1; attempt <= c.Attempts; attempt++ {
		articles, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			return articles, nil
		}
		c.Logger.Printf("attempt %d/%d failed: %v", attempt, c.Attempts, err)

		select {
		case <-time.After(c.Backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.Logger.Printf("giving up after %d attempts, returning no articles", c.Attempts)
	return []models.SourceArticle{}, nil
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) ([]models.SourceArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt error: %s", resp.Status)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Articles == nil {
		result.Articles = []models.SourceArticle{}
	}
	return result.Articles, nil
}
