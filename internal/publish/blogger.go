package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/models"
)

// Client publishes rendered documents to a Blogger blog. Both the token
// refresh and the post creation treat unexpected statuses as fatal, with
// the response status and body surfaced to the operator.
type Client struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	BlogID       string
	TokenURL     string
	APIURL       string
	HTTPClient   *http.Client
	Logger       *log.Logger
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type postRequest struct {
	Kind    string `json:"kind"`
	Blog    blog   `json:"blog"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type blog struct {
	ID string `json:"id"`
}

type postResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	SelfLink string `json:"selfLink"`
}

// NewClient builds a publisher from configuration.
func NewClient(cfg config.BloggerConfig) *Client {
	return &Client{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
		BlogID:       cfg.BlogID,
		TokenURL:     cfg.TokenURL,
		APIURL:       strings.TrimRight(cfg.APIURL, "/"),
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		Logger:       log.New(log.Writer(), "[PUBLISH] ", log.LstdFlags),
	}
}

// Publish refreshes the access token and creates the post.
func (c *Client) Publish(ctx context.Context, title, content string) (models.PublishedPost, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return models.PublishedPost{}, err
	}

	body, err := json.Marshal(postRequest{
		Kind:    "blogger#post",
		Blog:    blog{ID: c.BlogID},
		Title:   title,
		Content: content,
	})
	if err != nil {
		return models.PublishedPost{}, fmt.Errorf("failed to marshal post: %w", err)
	}

	endpoint := fmt.Sprintf("%s/blogger/v3/blogs/%s/posts/", c.APIURL, c.BlogID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return models.PublishedPost{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return models.PublishedPost{}, fmt.Errorf("failed to send post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return models.PublishedPost{}, fmt.Errorf("blogger post failed: %d %s", resp.StatusCode, readBody(resp.Body))
	}

	var created postResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return models.PublishedPost{}, fmt.Errorf("failed to parse post response: %w", err)
	}

	postURL := created.URL
	if postURL == "" {
		postURL = created.SelfLink
	}
	c.Logger.Printf("published post %s: %s", created.ID, postURL)
	return models.PublishedPost{ID: created.ID, URL: postURL}, nil
}

// accessToken exchanges the refresh token for a short-lived access token.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("refresh_token", c.RefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh failed: %d %s", resp.StatusCode, readBody(resp.Body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return token.AccessToken, nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(b))
}
