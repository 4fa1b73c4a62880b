package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmill/draftmill/models"
)

func chatServer(t *testing.T, content string, captured *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestDraftArticleParsesFencedJSON(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "```json\n{\"title\":\"Fed Holds Rates Steady\",\"meta_description\":\"What the pause means.\",\"keywords\":\"fed, rates\",\"body_html\":\"<section><p>The Fed held.</p></section>\"}\n```", &got)
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	sources := []models.SourceArticle{
		{Title: "Fed pauses again", PublishedAt: "20250812T133000Z", URL: "https://example.com/fed"},
	}

	draft, err := c.DraftArticle(context.Background(), "US interest rates", sources, 1500, 2000)
	require.NoError(t, err)

	assert.Equal(t, "Fed Holds Rates Steady", draft.Title)
	assert.Equal(t, "<section><p>The Fed held.</p></section>", draft.BodyHTML)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.4, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	// Sources are serialized as date | title | url bullets with a 10-char date.
	assert.Contains(t, got.Messages[1].Content, "- 20250812T1 | Fed pauses again | https://example.com/fed")
	assert.Contains(t, got.Messages[1].Content, "1500-2000 characters")
	assert.Contains(t, got.Messages[1].Content, "'Sources' section")
}

func TestDraftArticleSourcelessPrompt(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, `{"title":"T","meta_description":"d","keywords":"k","body_html":"<p>b</p>"}`, &got)
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	_, err := c.DraftArticle(context.Background(), "the U.S. stock market", nil, 0, 2000)
	require.NoError(t, err)

	user := got.Messages[1].Content
	assert.Contains(t, user, "{{HERO_URL}}")
	assert.Contains(t, user, "<= 2000 characters")
	assert.NotContains(t, user, "'Sources' section")
}

func TestDraftArticleRejectsIncompleteDraft(t *testing.T) {
	srv := chatServer(t, `{"meta_description":"no title here","body_html":"<p>b</p>"}`, nil)
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	_, err := c.DraftArticle(context.Background(), "topic", nil, 0, 2000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestDraftArticleRejectsNonJSON(t *testing.T) {
	srv := chatServer(t, "Sorry, I cannot help with that.", nil)
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	_, err := c.DraftArticle(context.Background(), "topic", nil, 0, 2000)
	require.Error(t, err)
}

func TestReviseLengthMidpointInstruction(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "```html\n<section><p>shorter</p></section>\n```", &got)
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	out, err := c.ReviseLength(context.Background(), "<p>long</p>", 1500, 2000)
	require.NoError(t, err)

	assert.Equal(t, "<section><p>shorter</p></section>", out)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Contains(t, got.Messages[1].Content, "about 1750 characters")
	assert.Contains(t, got.Messages[1].Content, "<p>long</p>")
}

func TestReviseLengthCeilingInstruction(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "<p>ok</p>", &got)
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	_, err := c.ReviseLength(context.Background(), "<p>long</p>", 0, 2000)
	require.NoError(t, err)
	assert.Contains(t, got.Messages[1].Content, "<= 2000 characters")
}

func TestChatErrorSurfacesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	_, err := c.DraftArticle(context.Background(), "topic", nil, 0, 2000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGenerateImage(t *testing.T) {
	var got imageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example.com/hero.png"}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	url, err := c.GenerateImage(context.Background(), "flat illustration, warm palette")
	require.NoError(t, err)

	assert.Equal(t, "https://img.example.com/hero.png", url)
	assert.Equal(t, "gpt-image-1", got.Model)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, "1024x1024", got.Size)
	assert.Contains(t, got.Prompt, "Hero image for a blog post about: flat illustration, warm palette.")
	assert.Contains(t, got.Prompt, "No text.")
}

func TestGenerateImageEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", "gpt-image-1", 0.4, 5*time.Second)
	_, err := c.GenerateImage(context.Background(), "anything")
	require.Error(t, err)
}
