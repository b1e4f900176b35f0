// Package outbox delivers the deferred work recorded alongside domain writes:
// memory embeddings, daily summaries and activity events.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/embeddings"
	"github.com/gab-cat/cold-start-sub000/internal/events"
	"github.com/gab-cat/cold-start-sub000/internal/metrics"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/searchindex"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/temporal"
)

// Results recorded per handled row.
const (
	ResultDone  = "done"
	ResultRetry = "retry"
	ResultDead  = "dead"
)

// errPoison marks rows that can never succeed.
var errPoison = errors.New("poison message")

// DailyRecomputer rebuilds one local day's summary.
type DailyRecomputer interface {
	RecomputeDaily(ctx context.Context, userID, date string, loc *time.Location) (*model.DailySummary, error)
}

// Config controls batching, leasing and retry cadence.
type Config struct {
	BatchSize   int
	Interval    time.Duration
	Lease       time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Dimensions is the expected vector length; zero skips the check.
	Dimensions int
	// DefaultLocation is used for users without a timezone preference.
	DefaultLocation *time.Location
}

// Worker leases ready outbox rows and applies them. Handlers are idempotent,
// so a row redelivered after an expired lease is harmless.
type Worker struct {
	store     store.Store
	embedder  embeddings.Provider
	index     searchindex.Index
	daily     DailyRecomputer
	publisher events.Publisher
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

func NewWorker(s store.Store, emb embeddings.Provider, idx searchindex.Index, daily DailyRecomputer, pub events.Publisher, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Minute
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Worker{
		store: s, embedder: emb, index: idx, daily: daily, publisher: pub,
		cfg: cfg, log: log.With().Str("component", "outbox").Logger(), now: time.Now,
	}
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("outbox worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				// per-row backoff keeps this from hot-looping
				w.log.Error().Err(err).Msg("outbox process batch")
			}
		}
	}
}

// ProcessOnce leases and handles one batch, returning the number of rows leased.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	rows, err := w.store.Outbox().Lease(ctx, w.cfg.BatchSize, w.cfg.Lease, w.now())
	if err != nil {
		return 0, fmt.Errorf("lease: %w", err)
	}
	for _, r := range rows {
		w.process(ctx, r)
	}
	return len(rows), nil
}

func (w *Worker) process(ctx context.Context, r store.OutboxRow) {
	herr := w.handle(ctx, r)
	now := w.now()
	if herr == nil {
		if err := w.store.Outbox().MarkDone(ctx, r.ID); err != nil {
			w.log.Error().Err(err).Int64("id", r.ID).Msg("mark outbox row done")
			return
		}
		metrics.ObserveOutbox(r.Op, ResultDone, now)
		return
	}

	attempts := r.Attempts + 1
	dead := errors.Is(herr, errPoison) || attempts >= w.cfg.MaxAttempts
	result := ResultRetry
	if dead {
		result = ResultDead
	}
	ev := w.log.Warn()
	if dead {
		ev = w.log.Error()
	}
	ev.Err(herr).Int64("id", r.ID).Str("op", r.Op).Str("aggregate_id", r.AggregateID).
		Int("attempts", attempts).Str("result", result).Msg("outbox row failed")

	next := now.Add(RetryDelay(r.Attempts, w.cfg.BaseDelay, w.cfg.MaxDelay))
	if err := w.store.Outbox().MarkFailed(ctx, r.ID, next, truncate(herr.Error(), 1000), dead); err != nil {
		w.log.Error().Err(err).Int64("id", r.ID).Msg("mark outbox row failed")
		return
	}
	metrics.ObserveOutbox(r.Op, result, now)
}

// RetryDelay doubles base per previous attempt, capped at max.
func RetryDelay(attempts int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

func (w *Worker) handle(ctx context.Context, r store.OutboxRow) error {
	switch r.Op {
	case store.OpEmbedMemory:
		var p store.EmbedPayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errPoison, err)
		}
		return w.embedMemory(ctx, p)
	case store.OpRecomputeDaily:
		var p store.DailyPayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errPoison, err)
		}
		return w.recomputeDaily(ctx, p)
	case store.OpPublishActivity:
		var a model.Activity
		if err := json.Unmarshal(r.Payload, &a); err != nil {
			return fmt.Errorf("%w: %v", errPoison, err)
		}
		return w.publisher.PublishActivity(ctx, events.NewActivityLogged(a))
	default:
		return fmt.Errorf("%w: unknown op %q", errPoison, r.Op)
	}
}

func (w *Worker) embedMemory(ctx context.Context, p store.EmbedPayload) error {
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: empty memory text", errPoison)
	}
	vec, err := w.embedder.Embed(ctx, p.Text)
	if err != nil {
		metrics.IncEmbedFailure()
		return fmt.Errorf("embed: %w", err)
	}
	if len(vec) == 0 {
		metrics.IncEmbedFailure()
		return fmt.Errorf("embed: empty vector")
	}
	if w.cfg.Dimensions > 0 && len(vec) != w.cfg.Dimensions {
		metrics.IncEmbedFailure()
		return fmt.Errorf("%w: embedding has %d dimensions, want %d", errPoison, len(vec), w.cfg.Dimensions)
	}
	rec := model.EmbeddingRecord{
		ID: p.RecordID, UserID: p.UserID, Category: p.Category, Text: p.Text,
		Vector: vec, SourceID: p.SourceID, CreatedAt: p.CreatedAt,
	}
	if err := w.store.Memories().Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	if err := w.index.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("index memory: %w", err)
	}
	return nil
}

func (w *Worker) recomputeDaily(ctx context.Context, p store.DailyPayload) error {
	loc := w.cfg.DefaultLocation
	prof, err := w.store.Profiles().Get(ctx, p.UserID)
	switch {
	case err == nil:
		loc = prof.Location(loc)
	case !model.IsNotFound(err):
		return fmt.Errorf("load profile: %w", err)
	}
	date := temporal.LocalDate(p.OccurredAt, loc)
	if _, err := w.daily.RecomputeDaily(ctx, p.UserID, date, loc); err != nil {
		return fmt.Errorf("recompute %s: %w", date, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
