// Package rag assembles the per-turn context handed to the reasoning engine:
// semantically similar memories plus the user's recent structured state.
package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gab-cat/cold-start-sub000/internal/embeddings"
	"github.com/gab-cat/cold-start-sub000/internal/metrics"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/searchindex"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/tracking"
)

const (
	// RecentActivityLimit bounds the recent activities in a context.
	RecentActivityLimit = 10
	// SemanticTopK bounds the semantic chunks in a context.
	SemanticTopK = searchindex.DefaultTopK
)

// Context is the retrieval result for one turn.
type Context struct {
	SemanticChunks   []string          `json:"semanticChunks"`
	Hits             []model.MemoryHit `json:"hits,omitempty"`
	RecentActivities []model.Activity  `json:"recentActivities"`
	ActiveGoals      []model.Goal      `json:"activeGoals"`
	// ActiveStreaks holds streaks that are still unbroken on the user's local day.
	ActiveStreaks []model.Streak `json:"activeStreaks"`
	// Degraded is set when the query embedding failed and a zero vector was used.
	Degraded bool `json:"degraded"`
}

// Retriever builds Contexts from the store and the embedding index.
type Retriever struct {
	store    store.Store
	index    searchindex.Index
	embedder embeddings.Provider
	dims     int
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

// NewRetriever builds a Retriever. defaultLoc is used for users without a
// timezone preference.
func NewRetriever(s store.Store, index searchindex.Index, embedder embeddings.Provider, dims int, defaultLoc *time.Location, log zerolog.Logger) *Retriever {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Retriever{store: s, index: index, embedder: embedder, dims: dims, loc: defaultLoc, log: log, now: time.Now}
}

// Retrieve gathers the context for query. Embedding failures degrade to a
// zero vector; only storage and index failures are returned.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string, categories ...model.MemoryCategory) (Context, error) {
	var out Context
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vec, degraded := embeddings.EmbedOrZero(gctx, r.embedder, query, r.dims, r.log)
		if degraded {
			metrics.IncEmbedFailure()
		}
		hits, err := r.index.Search(gctx, searchindex.Query{
			UserID: userID, Vector: vec, TopK: SemanticTopK, Categories: categories,
		})
		if err != nil {
			return fmt.Errorf("search memories: %w", err)
		}
		out.Degraded = degraded
		out.Hits = hits
		out.SemanticChunks = make([]string, 0, len(hits))
		for _, h := range hits {
			out.SemanticChunks = append(out.SemanticChunks, h.Text)
		}
		return nil
	})
	g.Go(func() error {
		acts, err := r.store.Activities().ListRecent(gctx, userID, RecentActivityLimit)
		if err != nil {
			return fmt.Errorf("recent activities: %w", err)
		}
		out.RecentActivities = acts
		return nil
	})
	g.Go(func() error {
		goals, err := r.store.Goals().List(gctx, userID, model.GoalActive)
		if err != nil {
			return fmt.Errorf("active goals: %w", err)
		}
		out.ActiveGoals = goals
		return nil
	})
	g.Go(func() error {
		streaks, err := r.activeStreaks(gctx, userID)
		if err != nil {
			return err
		}
		out.ActiveStreaks = streaks
		return nil
	})

	if err := g.Wait(); err != nil {
		return Context{}, err
	}
	return out, nil
}

// activeStreaks drops streaks whose last activity is two or more local days
// back; the next activity would restart them at one.
func (r *Retriever) activeStreaks(ctx context.Context, userID string) ([]model.Streak, error) {
	streaks, err := r.store.Streaks().List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("streaks: %w", err)
	}
	loc := r.loc
	prof, err := r.store.Profiles().Get(ctx, userID)
	switch {
	case err == nil:
		loc = prof.Location(loc)
	case !model.IsNotFound(err):
		return nil, fmt.Errorf("load profile: %w", err)
	}
	now := r.now()
	active := make([]model.Streak, 0, len(streaks))
	for _, s := range streaks {
		chk, err := tracking.CheckStreak(s, now, loc)
		if err != nil {
			r.log.Warn().Err(err).Str("streak", string(s.Type)).Msg("skip streak with unreadable date")
			continue
		}
		if s.Count > 0 && chk.Gap < tracking.AtRiskGap {
			active = append(active, s)
		}
	}
	return active, nil
}
