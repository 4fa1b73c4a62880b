package rss

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/draftmill/draftmill/models"
)

// Client reads headlines from a set of RSS/Atom feeds. Feeds are already
// topic-curated by the operator, so the query only grounds the prompt and
// is not used to filter items.
type Client struct {
	Feeds  []string
	Parser *gofeed.Parser
	Logger *log.Logger
}

// NewClient creates a feed-backed source.
func NewClient(feeds []string) *Client {
	return &Client{
		Feeds:  feeds,
		Parser: gofeed.NewParser(),
		Logger: log.New(log.Writer(), "[RSS] ", log.LstdFlags),
	}
}

// Fetch parses every configured feed and returns the newest items first,
// at most limit of them. Unreachable feeds are logged and skipped; only a
// fully empty result set surfaces as an empty list.
func (c *Client) Fetch(ctx context.Context, query string, limit int) ([]models.SourceArticle, error) {
	type dated struct {
		article models.SourceArticle
		at      time.Time
	}

	var items []dated
	for _, feedURL := range c.Feeds {
		feed, err := c.Parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			c.Logger.Printf("skipping feed %s: %v", feedURL, err)
			continue
		}
		for _, item := range feed.Items {
			// gofeed normalizes RSS pubDate and Atom published/updated.
			var at time.Time
			if item.PublishedParsed != nil {
				at = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				at = *item.UpdatedParsed
			}
			items = append(items, dated{
				article: models.SourceArticle{
					Title:       item.Title,
					PublishedAt: at.UTC().Format("2006-01-02"),
					URL:         item.Link,
				},
				at: at,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
	if len(items) > limit {
		items = items[:limit]
	}

	articles := make([]models.SourceArticle, 0, len(items))
	for _, it := range items {
		articles = append(articles, it.article)
	}
	return articles, nil
}
