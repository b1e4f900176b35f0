// Package outboxworker runs the durable outbox delivery loop as a process.
package outboxworker

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/config"
	"github.com/gab-cat/cold-start-sub000/internal/embeddings"
	"github.com/gab-cat/cold-start-sub000/internal/events"
	"github.com/gab-cat/cold-start-sub000/internal/factory"
	"github.com/gab-cat/cold-start-sub000/internal/logger"
	"github.com/gab-cat/cold-start-sub000/internal/outbox"
	"github.com/gab-cat/cold-start-sub000/internal/searchindex"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/tracking"
)

// Run starts the outbox worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("outbox-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	emb, err := factory.NewEmbeddingProvider(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Embedding provider unavailable")
		return err
	}
	idx, err := factory.NewSearchIndex(ctx, cfg, st, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		return err
	}
	pub := factory.NewPublisher(cfg, log)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("publisher close")
		}
	}()

	w := NewWorker(cfg, st, emb, idx, pub, log)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Stack().Err(err).Msg("outbox worker exit")
		return err
	}
	log.Info().Msg("outbox worker stopped")
	return nil
}

// NewWorker builds an outbox worker from configuration. The agent service
// uses it too when the worker is embedded.
func NewWorker(cfg *config.Config, st store.Store, emb embeddings.Provider, idx searchindex.Index, pub events.Publisher, log zerolog.Logger) *outbox.Worker {
	daily := tracking.NewMaintainer(st, log.With().Str("component", "tracking").Logger())
	return outbox.NewWorker(st, emb, idx, daily, pub, outbox.Config{
		BatchSize:       cfg.OutboxBatchSize,
		Interval:        cfg.OutboxPollInterval,
		Lease:           cfg.OutboxLease,
		MaxAttempts:     cfg.OutboxMaxAttempts,
		Dimensions:      cfg.EmbedDimensions,
		DefaultLocation: cfg.DefaultLocation(),
	}, log)
}
