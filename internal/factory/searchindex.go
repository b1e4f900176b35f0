package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/config"
	"github.com/gab-cat/cold-start-sub000/internal/searchindex"
	storepkg "github.com/gab-cat/cold-start-sub000/internal/store"
)

// NewSearchIndex creates the index selected by cfg.VectorStore. The store
// index is always built; Weaviate wraps it as the fallback for queries it
// cannot score.
// Launches async bootstrap with short timeout; returns index immediately for fast startup.
func NewSearchIndex(ctx context.Context, cfg *config.Config, s storepkg.Store, log zerolog.Logger) (searchindex.Index, error) {
	base := searchindex.NewStoreIndex(s.Memories())
	switch cfg.VectorStore {
	case "store":
		return base, nil
	case "weaviate":
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE: %s", cfg.VectorStore)
	}

	idx, err := searchindex.NewWeaviate(cfg.WeaviateURL, base, log.With().Str("component", "weaviate").Logger())
	if err != nil {
		return nil, err
	}

	go func() {
		bootstrapCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()

		if err := searchindex.BootstrapWeaviate(bootstrapCtx, cfg.WeaviateURL); err != nil {
			log.Warn().Err(err).Str("url", cfg.WeaviateURL).Msg("search index bootstrap failed")
		} else {
			log.Debug().Str("url", cfg.WeaviateURL).Msg("search index bootstrap completed")
		}
	}()

	return idx, nil
}
