package article

import (
	"context"
	"fmt"
	"log"

	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/models"
	"github.com/draftmill/draftmill/provider"
)

// Generator produces a draft and holds its body to the length policy.
//
// A body already inside [MinChars, MaxChars] passes through untouched,
// anything else gets exactly one model-assisted rewrite, and a body still
// over the ceiling after that is truncated deterministically. There is
// never a second rewrite round.
type Generator struct {
	Provider     provider.Provider
	MinChars     int
	MaxChars     int
	SentenceTrim bool
	Logger       *log.Logger
}

// NewGenerator wires a generator with the default logger.
func NewGenerator(p provider.Provider, minChars, maxChars int, sentenceTrim bool) *Generator {
	return &Generator{
		Provider:     p,
		MinChars:     minChars,
		MaxChars:     maxChars,
		SentenceTrim: sentenceTrim,
		Logger:       log.New(log.Writer(), "[DRAFT] ", log.LstdFlags),
	}
}

// Generate asks the model for a draft and applies the length policy to its
// body before returning it.
func (g *Generator) Generate(ctx context.Context, topic string, sources []models.SourceArticle) (models.Draft, error) {
	draft, err := g.Provider.DraftArticle(ctx, topic, sources, g.MinChars, g.MaxChars)
	if err != nil {
		return models.Draft{}, fmt.Errorf("generating draft: %w", err)
	}

	body, err := g.AdjustBody(ctx, draft.BodyHTML)
	if err != nil {
		return models.Draft{}, err
	}
	draft.BodyHTML = body
	return draft, nil
}

// AdjustBody enforces the length window on one body.
func (g *Generator) AdjustBody(ctx context.Context, body string) (string, error) {
	n := helpers.PlainLen(body)
	if g.within(n) {
		g.Logger.Printf("plain length %d within target, keeping body", n)
		return body, nil
	}

	g.Logger.Printf("plain length %d outside target [%d, %d], requesting rewrite", n, g.MinChars, g.MaxChars)
	revised, err := g.Provider.ReviseLength(ctx, body, g.MinChars, g.MaxChars)
	if err != nil {
		return "", fmt.Errorf("revising draft length: %w", err)
	}

	if m := helpers.PlainLen(revised); m > g.MaxChars {
		g.Logger.Printf("rewrite still %d chars over ceiling %d, truncating", m-g.MaxChars, g.MaxChars)
		revised = g.truncate(revised)
	}
	return revised, nil
}

func (g *Generator) within(n int) bool {
	if g.MinChars > 0 && n < g.MinChars {
		return false
	}
	return n <= g.MaxChars
}

// truncate is the last-resort cut: it flattens the body to plain text,
// slices it at the ceiling and wraps the remainder in a minimal shell.
// Heading and list structure does not survive this path.
func (g *Generator) truncate(body string) string {
	txt := helpers.TruncateRunes(helpers.StripTags(body), g.MaxChars)
	if g.SentenceTrim {
		txt = helpers.TrimPartialSentence(txt)
	}
	return "<section><p>" + txt + "</p></section>"
}
