package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/internal/archive"
	"github.com/draftmill/draftmill/internal/article"
	"github.com/draftmill/draftmill/internal/enrich"
	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/internal/hero"
	"github.com/draftmill/draftmill/internal/output"
	"github.com/draftmill/draftmill/internal/publish"
	"github.com/draftmill/draftmill/internal/render"
	"github.com/draftmill/draftmill/models"
	"github.com/draftmill/draftmill/news"
	"github.com/draftmill/draftmill/provider"
)

const relatedLinkCount = 3

// Publisher pushes a rendered document to the blog host.
type Publisher interface {
	Publish(ctx context.Context, title, content string) (models.PublishedPost, error)
}

// RunStore records run outcomes.
type RunStore interface {
	CreateRun(ctx context.Context, rec models.RunRecord) error
	FinishRun(ctx context.Context, rec models.RunRecord) error
}

// RelatedIndex looks up prior posts for internal linking.
type RelatedIndex interface {
	Add(doc archive.Document) error
	Related(queryText, exclude string, k int) ([]models.RelatedLink, error)
}

// Enricher fills source excerpts before drafting.
type Enricher interface {
	Enrich(ctx context.Context, articles []models.SourceArticle) []models.SourceArticle
}

// Pipeline runs the whole fetch-draft-render-publish sequence. Optional
// stages are nil when disabled; Store and Index degrade to log lines when
// the archive is unreachable.
type Pipeline struct {
	Topic       string
	Query       string
	RecordLimit int
	LinkRelated bool

	Source    news.Source
	Enricher  Enricher
	Generator *article.Generator
	Hero      hero.Acquirer
	Writer    *output.Writer
	Publisher Publisher
	Store     RunStore
	Index     RelatedIndex
	Logger    *log.Logger
}

// New wires a pipeline from configuration. The archive backends are
// attached separately by the caller, which owns their lifecycle.
func New(cfg *config.Config, prov provider.Provider) *Pipeline {
	p := &Pipeline{
		Topic:       cfg.Pipeline.Topic,
		Query:       cfg.Pipeline.Query,
		RecordLimit: cfg.Pipeline.RecordLimit,
		LinkRelated: cfg.Pipeline.RelatedLinks,
		Generator:   article.NewGenerator(prov, cfg.Pipeline.LengthMin, cfg.Pipeline.LengthMax, cfg.Pipeline.SentenceTrim),
		Hero:        hero.New(cfg.Hero, prov),
		Writer:      output.NewWriter(cfg.Output.Dir),
		Logger:      log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
	if strings.TrimSpace(cfg.Pipeline.Query) != "" {
		p.Source = news.New(cfg.Source)
	}
	if cfg.Pipeline.Enrich {
		p.Enricher = enrich.New()
	}
	if cfg.Pipeline.Publish {
		p.Publisher = publish.NewClient(cfg.Blogger)
	}
	return p
}

// Run executes one pipeline pass and reports what happened. The returned
// record is filled in even when err is non-nil.
func (p *Pipeline) Run(ctx context.Context) (models.RunRecord, error) {
	rec := models.RunRecord{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusRunning,
		Topic:     p.Topic,
	}
	p.Logger.Printf("run %s starting (topic %q)", rec.ID, p.Topic)
	if p.Store != nil {
		if err := p.Store.CreateRun(ctx, rec); err != nil {
			p.Logger.Printf("archive: recording run start: %v", err)
		}
	}

	err := p.execute(ctx, &rec)
	now := time.Now().UTC()
	rec.FinishedAt = &now
	if err != nil {
		rec.Status = models.RunStatusFailed
		rec.Error = err.Error()
	}

	if p.Store != nil {
		if ferr := p.Store.FinishRun(ctx, rec); ferr != nil {
			p.Logger.Printf("archive: recording run result: %v", ferr)
		}
	}

	if err != nil {
		p.Logger.Printf("run %s failed: %v", rec.ID, err)
		return rec, err
	}
	p.Logger.Printf("run %s %s in %s", rec.ID, rec.Status, now.Sub(rec.StartedAt).Round(time.Millisecond))
	return rec, nil
}

func (p *Pipeline) execute(ctx context.Context, rec *models.RunRecord) error {
	var sources []models.SourceArticle
	if p.Source != nil {
		var err error
		sources, err = p.Source.Fetch(ctx, p.Query, p.RecordLimit)
		if err != nil {
			return fmt.Errorf("fetching headlines: %w", err)
		}
		if len(sources) == 0 {
			p.Logger.Printf("no articles found for query %q, nothing to do", p.Query)
			rec.Status = models.RunStatusSkipped
			return nil
		}
		if deduped := news.Dedupe(sources); len(deduped) < len(sources) {
			p.Logger.Printf("dropped %d duplicate articles", len(sources)-len(deduped))
			sources = deduped
		}
		p.Logger.Printf("fetched %d articles", len(sources))
		if p.Enricher != nil {
			sources = p.Enricher.Enrich(ctx, sources)
		}
	}

	draft, err := p.Generator.Generate(ctx, p.Topic, sources)
	if err != nil {
		return err
	}
	rec.Title = draft.Title
	rec.PlainLen = helpers.PlainLen(draft.BodyHTML)

	heroURL, err := p.Hero.Acquire(ctx, draft, p.Topic)
	if err != nil {
		return fmt.Errorf("acquiring hero image: %w", err)
	}

	stem := strings.TrimSuffix(p.Writer.Filename(draft.Title), ".html")
	rec.Slug = stem

	var related []models.RelatedLink
	if p.Index != nil && p.LinkRelated {
		related, err = p.Index.Related(archive.QueryFor(draft), stem, relatedLinkCount)
		if err != nil {
			p.Logger.Printf("archive: related links unavailable: %v", err)
			related = nil
		}
	}

	doc := render.Document(draft, heroURL, related)
	path, err := p.Writer.Write(draft.Title, doc)
	if err != nil {
		return err
	}
	rec.OutputPath = path
	p.Logger.Printf("wrote %s", path)

	if p.Index != nil {
		idxDoc := archive.Document{
			Slug:     stem,
			Title:    draft.Title,
			Text:     helpers.StripTags(draft.BodyHTML),
			Keywords: draft.Keywords,
		}
		if err := p.Index.Add(idxDoc); err != nil {
			p.Logger.Printf("archive: indexing post: %v", err)
		}
	}

	if p.Publisher != nil {
		post, err := p.Publisher.Publish(ctx, draft.Title, doc)
		if err != nil {
			return fmt.Errorf("publishing post: %w", err)
		}
		rec.PublishedURL = post.URL
	}

	rec.Status = models.RunStatusSucceeded
	return nil
}

// PublishLatest pushes the newest rendered document to the blog host
// without regenerating anything.
func PublishLatest(ctx context.Context, w *output.Writer, pub Publisher, logger *log.Logger) (models.PublishedPost, error) {
	path, err := w.Latest()
	if err != nil {
		return models.PublishedPost{}, err
	}
	return PublishFile(ctx, path, pub, logger)
}

// PublishFile pushes one rendered document, deriving the post title from
// its filename.
func PublishFile(ctx context.Context, path string, pub Publisher, logger *log.Logger) (models.PublishedPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.PublishedPost{}, fmt.Errorf("reading %s: %w", path, err)
	}
	title := output.TitleFromFilename(path)
	logger.Printf("publishing %s as %q", path, title)
	return pub.Publish(ctx, title, string(data))
}
