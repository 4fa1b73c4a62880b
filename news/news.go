package news

import (
	"context"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/models"
	"github.com/draftmill/draftmill/news/gdelt"
	"github.com/draftmill/draftmill/news/newsapi"
	"github.com/draftmill/draftmill/news/rss"
)

// Source produces recent headlines used to ground a draft. An empty result
// is not an error; callers treat it as "nothing to write about".
type Source interface {
	Fetch(ctx context.Context, query string, limit int) ([]models.SourceArticle, error)
}

// New selects the configured source implementation.
func New(cfg config.SourceConfig) Source {
	switch cfg.Kind {
	case "rss":
		return rss.NewClient(cfg.Feeds)
	case "newsapi":
		return newsapi.NewClient(cfg.APIKey, cfg.Endpoint)
	default:
		return gdelt.NewClient(cfg.Endpoint)
	}
}

// Dedupe drops articles whose URLs collapse to the same canonical form,
// keeping the first occurrence. Aggregators hand back the same story under
// tracking-parameter variants; one copy in the prompt is enough.
func Dedupe(articles []models.SourceArticle) []models.SourceArticle {
	if len(articles) < 2 {
		return articles
	}
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		key, err := helpers.URLFingerprint(a.URL)
		if err != nil {
			// unkeyable articles are kept as-is
			out = append(out, a)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
