package provider

import (
	"context"
	"errors"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/models"
	openai_provider "github.com/draftmill/draftmill/provider/openai"
)

// Provider is the model-backed surface the pipeline depends on.
type Provider interface {
	// DraftArticle asks the model for a complete article draft grounded on
	// the given sources. minChars may be zero for a ceiling-only target.
	DraftArticle(ctx context.Context, topic string, sources []models.SourceArticle, minChars, maxChars int) (models.Draft, error)
	// ReviseLength issues the single corrective rewrite toward the target
	// window and returns the revised body HTML.
	ReviseLength(ctx context.Context, bodyHTML string, minChars, maxChars int) (string, error)
	// GenerateImage returns the URL of a generated hero image.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// NewProvider builds the OpenAI-backed provider from configuration.
func NewProvider(cfg config.OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key not set")
	}
	return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.TextModel, cfg.ImageModel, cfg.Temperature, cfg.Timeout), nil
}
