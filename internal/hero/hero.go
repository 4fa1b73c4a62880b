package hero

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/models"
)

// Acquirer resolves the hero image URL for a draft. The two strategies are
// mutually exclusive per run.
type Acquirer interface {
	Acquire(ctx context.Context, draft models.Draft, topic string) (string, error)
}

// ImageProvider is the slice of the model provider the generated strategy needs.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// New selects the configured strategy.
func New(cfg config.HeroConfig, p ImageProvider) Acquirer {
	if cfg.Strategy == "generated" {
		return &Generated{
			Provider: p,
			Logger:   log.New(log.Writer(), "[HERO] ", log.LstdFlags),
		}
	}
	return &Placeholder{
		Now:  time.Now,
		Intn: rand.Intn,
	}
}

// Generated asks the image model for a hero, prompted by the draft's
// declared style, falling back to its title, then the run topic.
type Generated struct {
	Provider ImageProvider
	Logger   *log.Logger
}

func (g *Generated) Acquire(ctx context.Context, draft models.Draft, topic string) (string, error) {
	prompt := strings.TrimSpace(draft.ImageStyle)
	if prompt == "" {
		prompt = strings.TrimSpace(draft.Title)
	}
	if prompt == "" {
		prompt = topic
	}
	g.Logger.Printf("requesting generated hero for %q", prompt)
	return g.Provider.GenerateImage(ctx, prompt)
}

// Placeholder builds a picsum URL from a dated random seed. No network
// call happens here; whoever loads the page fetches the image.
type Placeholder struct {
	Now  func() time.Time
	Intn func(n int) int
}

func (p *Placeholder) Acquire(ctx context.Context, draft models.Draft, topic string) (string, error) {
	seed := fmt.Sprintf("%s-%d", p.Now().UTC().Format("20060102"), 1000+p.Intn(9000))
	return fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", seed), nil
}
