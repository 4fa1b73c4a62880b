package archive

import (
	"context"
	"log"

	"github.com/draftmill/draftmill/config"
)

// Open connects whatever archive backends are configured. A backend that
// is absent from the config, or that fails to open, comes back nil after
// a log line; runs proceed without it.
func Open(ctx context.Context, cfg config.ArchiveConfig, logger *log.Logger) (*Store, *Index) {
	var st *Store
	var ix *Index
	if cfg.PostgresURL != "" {
		var err error
		st, err = NewStore(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Printf("archive store unavailable: %v", err)
			st = nil
		}
	}
	if cfg.IndexPath != "" {
		var err error
		ix, err = OpenIndex(cfg.IndexPath)
		if err != nil {
			logger.Printf("related-links index unavailable: %v", err)
			ix = nil
		}
	}
	return st, ix
}
