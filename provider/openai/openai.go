package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/models"
)

const reviseTemperature = 0.2

const draftSystemPrompt = "You are a financial journalist and SEO editor.\n" +
	"Write in clear American English with Grade 7-8 readability.\n" +
	"Prefer short sentences. Avoid jargon and complex words."

const reviseSystemPrompt = "You carefully edit HTML while preserving structure and semantics."

// client talks to an OpenAI-compatible API over plain HTTP.
type client struct {
	apiKey      string
	baseURL     string
	textModel   string
	imageModel  string
	temperature float64
	httpClient  *http.Client
}

// Message represents a message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// NewClient creates an OpenAI API client.
func NewClient(apiKey, baseURL, textModel, imageModel string, temperature float64, timeout time.Duration) *client {
	return &client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		textModel:   textModel,
		imageModel:  imageModel,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// DraftArticle requests a complete article draft as JSON and parses it.
// A malformed response or a draft without title/body is a hard error;
// length problems are the caller's concern.
func (c *client) DraftArticle(ctx context.Context, topic string, sources []models.SourceArticle, minChars, maxChars int) (models.Draft, error) {
	messages := []Message{
		{Role: "system", Content: draftSystemPrompt},
		{Role: "user", Content: buildDraftPrompt(topic, sources, minChars, maxChars)},
	}

	raw, err := c.sendChat(ctx, messages, c.temperature)
	if err != nil {
		return models.Draft{}, err
	}

	payload, err := helpers.ExtractJSON(raw)
	if err != nil {
		return models.Draft{}, fmt.Errorf("model response is not JSON: %w", err)
	}

	var draft models.Draft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return models.Draft{}, fmt.Errorf("parsing draft: %w", err)
	}
	if strings.TrimSpace(draft.Title) == "" {
		return models.Draft{}, fmt.Errorf("draft missing title")
	}
	if strings.TrimSpace(draft.BodyHTML) == "" {
		return models.Draft{}, fmt.Errorf("draft missing body_html")
	}
	return draft, nil
}

// ReviseLength asks for the one corrective rewrite toward the target window.
func (c *client) ReviseLength(ctx context.Context, bodyHTML string, minChars, maxChars int) (string, error) {
	var instruction string
	if minChars > 0 {
		goal := (minChars + maxChars) / 2
		instruction = fmt.Sprintf(
			"Revise this HTML so the plain-text length (excluding tags) is about %d characters. Keep headings and lists.",
			goal)
	} else {
		instruction = fmt.Sprintf(
			"Rewrite the following HTML article so the plain-text length is <= %d characters. "+
				"Keep headings and lists. Use Grade 7-8 vocabulary and short sentences. Return only HTML.",
			maxChars)
	}

	messages := []Message{
		{Role: "system", Content: reviseSystemPrompt},
		{Role: "user", Content: instruction + "\n\n" + bodyHTML},
	}

	raw, err := c.sendChat(ctx, messages, reviseTemperature)
	if err != nil {
		return "", err
	}
	return helpers.StripCodeFence(raw), nil
}

// GenerateImage requests one 1024x1024 hero image and returns its URL.
func (c *client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	requestBody := imageRequest{
		Model:  c.imageModel,
		Prompt: fmt.Sprintf("Hero image for a blog post about: %s. No text. minimal, modern, editorial, data theme.", prompt),
		N:      1,
		Size:   "1024x1024",
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("image API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var imgResp imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].URL == "" {
		return "", fmt.Errorf("no image in response")
	}
	return imgResp.Data[0].URL, nil
}

// buildDraftPrompt serializes the sources and output schema into the user
// instruction. Without sources the model writes from the topic alone and is
// told to leave a {{HERO_URL}} placeholder for the hero figure.
func buildDraftPrompt(topic string, sources []models.SourceArticle, minChars, maxChars int) string {
	lengthRule := fmt.Sprintf("<= %d characters", maxChars)
	if minChars > 0 {
		lengthRule = fmt.Sprintf("%d-%d characters", minChars, maxChars)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a Google-SEO-optimized blog post in ENGLISH about: %s.\n\n", topic)

	if len(sources) > 0 {
		b.WriteString("Use the sources list (recent items):\n")
		for _, s := range sources {
			date := s.PublishedAt
			if len(date) > 10 {
				date = date[:10]
			}
			fmt.Fprintf(&b, "- %s | %s | %s\n", date, s.Title, s.URL)
			if s.Excerpt != "" {
				fmt.Fprintf(&b, "  > %s\n", s.Excerpt)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Authoring rules (must follow):\n")
		b.WriteString("- Avoid hype and jargon; keep sentences short.\n")
		b.WriteString("- No invented data or precise live quotes; keep it educational and evergreen.\n")
		b.WriteString("- Include 1 hero image placeholder location in the HTML (<figure> with <img> but keep src as {{HERO_URL}}).\n\n")
	}

	b.WriteString("Return a single JSON with:\n")
	b.WriteString("- title: SEO H1 (<= 70 chars, include the core keyword naturally)\n")
	b.WriteString("- meta_description: ~150 chars, enticing, no clickbait\n")
	b.WriteString("- keywords: 8-12 SEO keywords as a comma-separated string\n")
	b.WriteString("- outline: 5-8 headings (mix of H2/H3 strings)\n")
	b.WriteString("- hero_alt: short alt text for the hero image\n")
	b.WriteString("- image_style: short image style guide (e.g., \"flat illustration, warm palette\")\n")
	b.WriteString("- body_html: FULL article body as clean semantic HTML (no inline CSS)\n")
	b.WriteString("  Rules:\n")
	b.WriteString("  * Grade 7-8 vocabulary, short sentences, neutral and factual tone\n")
	b.WriteString("  * Start with a short lede paragraph\n")
	b.WriteString("  * Follow the outline using <h2>/<h3>, then <p>, <ul>/<ol> as needed\n")
	b.WriteString("  * Include a 'Key Takeaways' box as a bullet list\n")
	if len(sources) > 0 {
		b.WriteString("  * Add a 'Sources' section with a <ul> of the source URLs above\n")
	}
	fmt.Fprintf(&b, "  * Keep plain-text length %s (exclude HTML tags)\n", lengthRule)
	b.WriteString("  * Do not include external scripts or CSS\n")
	b.WriteString("Return JSON only.\n")
	return b.String()
}

// sendChat sends one chat-completions request and returns the first choice.
func (c *client) sendChat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	requestBody := chatRequest{
		Model:       c.textModel,
		Messages:    messages,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
