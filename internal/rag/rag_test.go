package rag

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/searchindex"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/store/sqlite"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.vec, s.err }

type failingIndex struct{}

func (failingIndex) Search(context.Context, searchindex.Query) ([]model.MemoryHit, error) {
	return nil, errors.New("index down")
}
func (failingIndex) Upsert(context.Context, model.EmbeddingRecord) error { return nil }

func seed(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "rag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		_, err := s.Activities().Insert(ctx, model.Activity{
			UserID: "u1", Category: model.CategoryWalk, Name: "Walk", LoggedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	texts := map[string][]float32{"knee pain after runs": {1, 0}, "prefers morning walks": {0, 1}, "drinks little water": {0.6, 0.8}}
	i := 0
	for text, vec := range texts {
		require.NoError(t, s.Memories().Insert(ctx, model.EmbeddingRecord{
			ID: text, UserID: "u1", Category: model.MemoryNote, Text: text, Vector: vec, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
		i++
	}
	_, err = s.Goals().Create(ctx, model.Goal{UserID: "u1", Type: model.GoalDailySteps, Target: 8000, Unit: "steps", Status: model.GoalActive})
	require.NoError(t, err)
	_, err = s.Goals().Create(ctx, model.Goal{UserID: "u1", Type: model.GoalSleepTarget, Target: 8, Unit: "h", Status: model.GoalPaused})
	require.NoError(t, err)
	require.NoError(t, s.Streaks().Upsert(ctx, model.Streak{UserID: "u1", Type: model.StreakWorkout, Count: 3, Max: 5, LastActivityDate: "2025-06-01", LastActivityAt: base}))
	return s
}

func TestRetrieve(t *testing.T) {
	s := seed(t)
	r := NewRetriever(s, searchindex.NewStoreIndex(s.Memories()), stubEmbedder{vec: []float32{1, 0}}, 2, time.UTC, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }

	c, err := r.Retrieve(context.Background(), "u1", "my knee hurts")
	require.NoError(t, err)
	assert.False(t, c.Degraded)
	require.Len(t, c.SemanticChunks, 3)
	assert.Equal(t, "knee pain after runs", c.SemanticChunks[0])
	assert.Equal(t, "drinks little water", c.SemanticChunks[1])

	require.Len(t, c.RecentActivities, RecentActivityLimit)
	assert.True(t, c.RecentActivities[0].LoggedAt.After(c.RecentActivities[1].LoggedAt))
	require.Len(t, c.ActiveGoals, 1)
	assert.Equal(t, model.GoalDailySteps, c.ActiveGoals[0].Type)
	require.Len(t, c.ActiveStreaks, 1)
}

func TestRetrieve_EmbeddingFailureDegrades(t *testing.T) {
	s := seed(t)
	r := NewRetriever(s, searchindex.NewStoreIndex(s.Memories()), stubEmbedder{err: errors.New("timeout")}, 2, time.UTC, zerolog.Nop())

	c, err := r.Retrieve(context.Background(), "u1", "anything")
	require.NoError(t, err)
	assert.True(t, c.Degraded)
	// All scores are zero, so the newest memories come first.
	require.Len(t, c.Hits, 3)
	for _, h := range c.Hits {
		assert.Equal(t, 0.0, h.Score)
	}
	assert.True(t, c.Hits[0].CreatedAt.After(c.Hits[1].CreatedAt))
	assert.Len(t, c.RecentActivities, RecentActivityLimit)
}

func TestRetrieve_IndexFailureIsReturned(t *testing.T) {
	s := seed(t)
	r := NewRetriever(s, failingIndex{}, stubEmbedder{vec: []float32{1, 0}}, 2, time.UTC, zerolog.Nop())
	_, err := r.Retrieve(context.Background(), "u1", "anything")
	require.Error(t, err)
}

func TestRetrieve_WrongQueryDimensionsDegrade(t *testing.T) {
	s := seed(t)
	r := NewRetriever(s, searchindex.NewStoreIndex(s.Memories()), stubEmbedder{vec: []float32{1, 0, 0}}, 2, time.UTC, zerolog.Nop())

	c, err := r.Retrieve(context.Background(), "u1", "my knee hurts")
	require.NoError(t, err)
	assert.True(t, c.Degraded)
	require.Len(t, c.Hits, 3)
	for _, h := range c.Hits {
		assert.Equal(t, 0.0, h.Score)
	}
}

func TestRetrieve_DropsBrokenStreaks(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	_, err := s.Profiles().Create(ctx, model.UserProfile{UserID: "u1", Preferences: model.Preferences{Timezone: "Asia/Manila"}})
	require.NoError(t, err)
	require.NoError(t, s.Streaks().Upsert(ctx, model.Streak{
		UserID: "u1", Type: model.StreakHydration, Count: 9, Max: 9,
		LastActivityDate: "2025-05-28", LastActivityAt: time.Date(2025, 5, 28, 1, 0, 0, 0, time.UTC),
	}))

	r := NewRetriever(s, searchindex.NewStoreIndex(s.Memories()), stubEmbedder{vec: []float32{1, 0}}, 2, time.UTC, zerolog.Nop())
	// 23:30 UTC on June 1 is already June 2 in Manila, one day after the workout streak.
	r.now = func() time.Time { return time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC) }

	c, err := r.Retrieve(ctx, "u1", "how am I doing")
	require.NoError(t, err)
	require.Len(t, c.ActiveStreaks, 1)
	assert.Equal(t, model.StreakWorkout, c.ActiveStreaks[0].Type)

	// Two local days later the workout streak is broken too.
	r.now = func() time.Time { return time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC) }
	c, err = r.Retrieve(ctx, "u1", "how am I doing")
	require.NoError(t, err)
	assert.Empty(t, c.ActiveStreaks)
}
