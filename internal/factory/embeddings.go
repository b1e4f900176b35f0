package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/config"
	emb "github.com/gab-cat/cold-start-sub000/internal/embeddings"
	"github.com/gab-cat/cold-start-sub000/internal/embeddings/gemini"
	"github.com/gab-cat/cold-start-sub000/internal/embeddings/ollama"
	"github.com/gab-cat/cold-start-sub000/internal/health"
)

// EmbeddingProvider is an embeddings.Provider that can also be probed.
type EmbeddingProvider interface {
	emb.Provider
	health.Pinger
}

// NewEmbeddingProvider creates the provider named by cfg.EmbedProvider.
// Launches an async warmup; returns the provider immediately for fast startup.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) (EmbeddingProvider, error) {
	var provider EmbeddingProvider

	switch cfg.EmbedProvider {
	case "", "ollama":
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	case "gemini":
		p, err := gemini.New(ctx, cfg.GeminiKey, cfg.EmbedModel, cfg.EmbedDimensions)
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: %w", err)
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown EMBED_PROVIDER: %s", cfg.EmbedProvider)
	}

	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()

		if vec, err := provider.Embed(warmupCtx, "factory-warmup-check"); err != nil || len(vec) == 0 {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			if len(vec) != cfg.EmbedDimensions {
				log.Warn().Int("vec_len", len(vec)).Int("configured", cfg.EmbedDimensions).
					Msg("embedding dimension differs from configuration")
			}
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup completed")
		}
	}()

	return provider, nil
}
