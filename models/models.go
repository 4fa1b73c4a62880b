package models

import (
	"errors"
	"time"
)

// ErrNoDocuments is returned when the output directory holds nothing to publish.
var ErrNoDocuments = errors.New("no documents found")

// SourceArticle is one fetched headline used to ground the draft prompt.
type SourceArticle struct {
	Title       string `json:"title"`
	PublishedAt string `json:"seendate"`
	URL         string `json:"url"`
	Excerpt     string `json:"excerpt,omitempty"`
}

// Draft is the model-produced article content and metadata prior to
// rendering. BodyHTML is rewritten in place when the length policy
// corrects it; every other field is set once at parse time.
type Draft struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        string   `json:"keywords"`
	Outline         []string `json:"outline,omitempty"`
	HeroAlt         string   `json:"hero_alt,omitempty"`
	ImageStyle      string   `json:"image_style,omitempty"`
	BodyHTML        string   `json:"body_html"`
}

// PublishedPost is the remote blog's acknowledgement of a created post.
type PublishedPost struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RelatedLink points at a previously generated document, used for
// internal linking between posts.
type RelatedLink struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// RunRecord is the archived trace of one pipeline run.
type RunRecord struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       RunStatus  `json:"status"`
	Topic        string     `json:"topic"`
	Title        string     `json:"title,omitempty"`
	Slug         string     `json:"slug,omitempty"`
	OutputPath   string     `json:"output_path,omitempty"`
	PlainLen     int        `json:"plain_len,omitempty"`
	PublishedURL string     `json:"published_url,omitempty"`
	Error        string     `json:"error,omitempty"`
}
