package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/config"
	"github.com/gab-cat/cold-start-sub000/internal/health"
	"github.com/gab-cat/cold-start-sub000/internal/llm"
	"github.com/gab-cat/cold-start-sub000/internal/llm/gemini"
	"github.com/gab-cat/cold-start-sub000/internal/llm/ollama"
)

// Generator is an llm.Generator that can also be probed.
type Generator interface {
	llm.Generator
	health.Pinger
}

// NewGenerator creates the structured generator named by cfg.LLMProvider.
func NewGenerator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Generator, error) {
	switch cfg.LLMProvider {
	case "", "ollama":
		log.Debug().Str("provider", "ollama").Str("model", cfg.LLMModel).Msg("generator ready")
		return ollama.New(cfg.OllamaURL, cfg.LLMModel), nil
	case "gemini":
		g, err := gemini.New(ctx, cfg.GeminiKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("gemini generator: %w", err)
		}
		log.Debug().Str("provider", "gemini").Str("model", cfg.LLMModel).Msg("generator ready")
		return g, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}
}
