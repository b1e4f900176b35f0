package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

// Run exercises the compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("Profiles", func(t *testing.T) { testProfiles(t, makeStore(t)) })
	t.Run("Activities", func(t *testing.T) { testActivities(t, makeStore(t)) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, makeStore(t)) })
	t.Run("Streaks", func(t *testing.T) { testStreaks(t, makeStore(t)) })
	t.Run("Memories", func(t *testing.T) { testMemories(t, makeStore(t)) })
	t.Run("Conversations", func(t *testing.T) { testConversations(t, makeStore(t)) })
	t.Run("Summaries", func(t *testing.T) { testSummaries(t, makeStore(t)) })
	t.Run("Outbox", func(t *testing.T) { testOutbox(t, makeStore(t)) })
}

func f64(v float64) *float64 { return &v }

func newUserID() string { return "u-" + uuid.New().String() }

func testProfiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()
	chatID := uuid.New().String()

	p := model.UserProfile{
		UserID:       userID,
		DisplayName:  "Ana",
		Health:       model.HealthInfo{WeightKg: f64(72.5), Conditions: []string{"asthma"}},
		Preferences:  model.Preferences{Timezone: "Asia/Manila", Language: "en"},
		MessagingIDs: map[string]string{"telegram": chatID},
	}
	if _, err := s.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Profiles().Create(ctx, p); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate Create: expected ErrConflict, got %v", err)
	}

	got, err := s.Profiles().Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DisplayName != "Ana" || got.Health.WeightKg == nil || *got.Health.WeightKg != 72.5 {
		t.Fatalf("Get: unexpected profile %+v", got)
	}
	if got.Preferences.Timezone != "Asia/Manila" || got.MessagingIDs["telegram"] != chatID {
		t.Fatalf("Get: preferences or messaging ids lost: %+v", got)
	}

	byChat, err := s.Profiles().GetByMessagingID(ctx, "telegram", chatID)
	if err != nil || byChat.UserID != userID {
		t.Fatalf("GetByMessagingID: got=%v err=%v", byChat, err)
	}
	if _, err := s.Profiles().GetByMessagingID(ctx, "telegram", "nobody"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByMessagingID unknown: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Profiles().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	got.Health.WeightKg = f64(71)
	updated, err := s.Profiles().Update(ctx, *got)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *updated.Health.WeightKg != 71 {
		t.Fatalf("Update: weight not persisted: %+v", updated.Health)
	}

	touchedAt := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	if err := s.Profiles().TouchContext(ctx, userID, touchedAt); err != nil {
		t.Fatalf("TouchContext: %v", err)
	}
	got, _ = s.Profiles().Get(ctx, userID)
	if got.ContextTouchedAt == nil || !got.ContextTouchedAt.Equal(touchedAt) {
		t.Fatalf("TouchContext: got %v", got.ContextTouchedAt)
	}
	if err := s.Profiles().TouchContext(ctx, "missing", touchedAt); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("TouchContext missing: expected ErrNotFound, got %v", err)
	}
}

func testActivities(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()
	base := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	started := base.Add(-24 * time.Hour)

	walk, err := s.Activities().Insert(ctx, model.Activity{
		UserID: userID, Category: model.CategoryWalk, Name: "Morning walk",
		DistanceKm: f64(5), DurationMin: f64(50), Source: model.SourceChat, LoggedAt: base,
	})
	if err != nil {
		t.Fatalf("Insert walk: %v", err)
	}
	if walk.ID == "" {
		t.Fatalf("Insert: empty id")
	}
	if _, err := s.Activities().Insert(ctx, model.Activity{
		UserID: userID, Category: model.CategoryHydration, Name: "Water",
		HydrationMl: f64(500), Source: model.SourceChat, LoggedAt: base.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Insert water: %v", err)
	}
	// Logged now but happened yesterday.
	if _, err := s.Activities().Insert(ctx, model.Activity{
		UserID: userID, Category: model.CategoryRun, Name: "Run",
		StartedAt: &started, Source: model.SourceDashboard, LoggedAt: base.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("Insert run: %v", err)
	}

	got, err := s.Activities().Get(ctx, userID, walk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DistanceKm == nil || *got.DistanceKm != 5 || !got.LoggedAt.Equal(base) || got.Source != model.SourceChat {
		t.Fatalf("Get: unexpected activity %+v", got)
	}
	if _, err := s.Activities().Get(ctx, userID, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	recent, err := s.Activities().ListRecent(ctx, userID, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 || recent[0].Category != model.CategoryRun || recent[1].Category != model.CategoryHydration {
		t.Fatalf("ListRecent: unexpected order %+v", recent)
	}

	day := base.Truncate(24 * time.Hour)
	today, err := s.Activities().ListBetween(ctx, userID, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListBetween: %v", err)
	}
	if len(today) != 2 || today[0].Category != model.CategoryWalk {
		t.Fatalf("ListBetween today: expected walk and water, got %+v", today)
	}
	yesterday, err := s.Activities().ListBetween(ctx, userID, day.Add(-24*time.Hour), day)
	if err != nil {
		t.Fatalf("ListBetween yesterday: %v", err)
	}
	if len(yesterday) != 1 || yesterday[0].StartedAt == nil || !yesterday[0].StartedAt.Equal(started) {
		t.Fatalf("ListBetween yesterday: expected the run, got %+v", yesterday)
	}
}

func testGoals(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()

	steps, err := s.Goals().Create(ctx, model.Goal{
		UserID: userID, Type: model.GoalDailySteps, Target: 8000, Unit: "steps",
		Status: model.GoalActive, AgentAdjustable: true, CreatedBy: model.ActorUser,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Goals().Create(ctx, model.Goal{
		UserID: userID, Type: model.GoalSleepTarget, Target: 8, Unit: "h",
		Status: model.GoalPaused, CreatedBy: model.ActorAgent,
		Provenance: &model.GoalProvenance{Reasoning: "sleep debt", Evidence: []string{"5h avg"}, Confidence: 0.7},
	}); err != nil {
		t.Fatalf("Create sleep: %v", err)
	}

	active, err := s.Goals().List(ctx, userID, model.GoalActive)
	if err != nil || len(active) != 1 || active[0].ID != steps.ID {
		t.Fatalf("List active: got=%+v err=%v", active, err)
	}
	all, err := s.Goals().List(ctx, userID)
	if err != nil || len(all) != 2 {
		t.Fatalf("List all: n=%d err=%v", len(all), err)
	}
	for _, g := range all {
		if g.Type == model.GoalSleepTarget && (g.Provenance == nil || g.Provenance.Reasoning != "sleep debt") {
			t.Fatalf("provenance not persisted: %+v", g)
		}
	}

	steps.CurrentProgress = 8500
	steps.Status = model.GoalCompleted
	if err := s.Goals().Update(ctx, *steps); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Goals().Get(ctx, userID, steps.ID)
	if err != nil || got.CurrentProgress != 8500 || got.Status != model.GoalCompleted {
		t.Fatalf("Get after update: got=%+v err=%v", got, err)
	}
	if err := s.Goals().Update(ctx, model.Goal{ID: "missing", UserID: userID, Status: model.GoalActive}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Goals().Get(ctx, "someone-else", steps.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get other user: expected ErrNotFound, got %v", err)
	}
}

func testStreaks(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()
	at := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)

	if _, err := s.Streaks().Get(ctx, userID, model.StreakWorkout); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	st := model.Streak{UserID: userID, Type: model.StreakWorkout, Count: 1, Max: 1, LastActivityDate: "2025-06-11", LastActivityAt: at}
	if err := s.Streaks().Upsert(ctx, st); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	st.Count, st.Max, st.LastActivityDate = 2, 2, "2025-06-12"
	if err := s.Streaks().Upsert(ctx, st); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	got, err := s.Streaks().Get(ctx, userID, model.StreakWorkout)
	if err != nil || got.Count != 2 || got.Max != 2 || got.LastActivityDate != "2025-06-12" || !got.LastActivityAt.Equal(at) {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if err := s.Streaks().Upsert(ctx, model.Streak{UserID: userID, Type: model.StreakHydration, Count: 1, Max: 4, LastActivityDate: "2025-06-10", LastActivityAt: at}); err != nil {
		t.Fatalf("Upsert hydration: %v", err)
	}
	list, err := s.Streaks().List(ctx, userID)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: n=%d err=%v", len(list), err)
	}
}

func testMemories(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()
	rec := model.EmbeddingRecord{
		ID: store.MemoryRecordID(model.MemoryActivity, "a1"), UserID: userID, Category: model.MemoryActivity,
		Text: "walk: 5 km", Vector: []float32{0.25, -1, 3.5}, SourceID: "a1",
		CreatedAt: time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC),
	}
	if err := s.Memories().Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Memories().Insert(ctx, rec); err != nil {
		t.Fatalf("Insert duplicate must be a no-op, got %v", err)
	}
	if err := s.Memories().Insert(ctx, model.EmbeddingRecord{
		ID: "note-1", UserID: userID, Category: model.MemoryNote, Text: "knee pain", Vector: []float32{1, 0, 0},
		CreatedAt: rec.CreatedAt.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Insert note: %v", err)
	}

	all, err := s.Memories().List(ctx, userID)
	if err != nil || len(all) != 2 {
		t.Fatalf("List: n=%d err=%v", len(all), err)
	}
	if all[0].ID != "note-1" {
		t.Fatalf("List: expected newest first, got %s", all[0].ID)
	}
	acts, err := s.Memories().List(ctx, userID, model.MemoryActivity)
	if err != nil || len(acts) != 1 {
		t.Fatalf("List activity: n=%d err=%v", len(acts), err)
	}
	if len(acts[0].Vector) != 3 || acts[0].Vector[2] != 3.5 {
		t.Fatalf("vector not preserved: %v", acts[0].Vector)
	}
}

func testConversations(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()
	client := time.Date(2025, 6, 11, 7, 59, 0, 0, time.UTC)
	turn := model.ConversationTurn{
		ID: uuid.New().String(), UserID: userID, Message: "walked 5km",
		Response:        model.TurnResponse{Type: model.ResponseConfirmation, Text: "Nice walk!", Confidence: 0.9},
		Actions:         []model.ActionOutcome{{Operation: "activity-log", Success: true}},
		ClientTimestamp: &client,
		CreatedAt:       client.Add(time.Minute),
	}
	if err := s.Conversations().Insert(ctx, turn); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Conversations().Insert(ctx, turn); err != nil {
		t.Fatalf("Insert redelivery: %v", err)
	}
	list, err := s.Conversations().ListRecent(ctx, userID, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRecent: n=%d err=%v", len(list), err)
	}
	got := list[0]
	if got.Response.Text != "Nice walk!" || len(got.Actions) != 1 || got.ClientTimestamp == nil || !got.ClientTimestamp.Equal(client) {
		t.Fatalf("ListRecent: unexpected turn %+v", got)
	}

	rows, err := s.Outbox().Lease(ctx, 100, time.Minute, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	embeds := 0
	for _, r := range rows {
		if r.Op == store.OpEmbedMemory && r.AggregateID == turn.ID {
			embeds++
		}
	}
	if embeds != 1 {
		t.Fatalf("expected exactly one embedding queued for the turn, got %d", embeds)
	}
}

func testSummaries(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()
	sum := model.DailySummary{UserID: userID, Date: "2025-06-11", ActivityCount: 2, Steps: 6500, DistanceKm: 5, HydrationMl: 500}
	if err := s.Summaries().Upsert(ctx, sum); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	sum.ActivityCount, sum.Steps = 3, 7800
	if err := s.Summaries().Upsert(ctx, sum); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	got, err := s.Summaries().Get(ctx, userID, "2025-06-11")
	if err != nil || got.ActivityCount != 3 || got.Steps != 7800 || got.HydrationMl != 500 {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if _, err := s.Summaries().Get(ctx, userID, "2025-06-12"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
}

func testOutbox(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := newUserID()

	a, err := s.Activities().Insert(ctx, model.Activity{
		UserID: userID, Category: model.CategoryWalk, Name: "Walk", DistanceKm: f64(2), Source: model.SourceChat,
	})
	if err != nil {
		t.Fatalf("Insert activity: %v", err)
	}

	now := time.Now().Add(time.Second)
	rows, err := s.Outbox().Lease(ctx, 100, time.Minute, now)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	ops := map[string]store.OutboxRow{}
	for _, r := range rows {
		if r.AggregateID == a.ID {
			ops[r.Op] = r
		}
	}
	for _, op := range []string{store.OpEmbedMemory, store.OpRecomputeDaily, store.OpPublishActivity} {
		if _, ok := ops[op]; !ok {
			t.Fatalf("missing outbox op %s for activity, got %v", op, ops)
		}
	}
	var embed store.EmbedPayload
	if err := json.Unmarshal(ops[store.OpEmbedMemory].Payload, &embed); err != nil {
		t.Fatalf("decode embed payload: %v", err)
	}
	if embed.UserID != userID || embed.RecordID != store.MemoryRecordID(model.MemoryActivity, a.ID) {
		t.Fatalf("unexpected embed payload %+v", embed)
	}

	// Leased rows are invisible until the lease runs out.
	again, err := s.Outbox().Lease(ctx, 100, time.Minute, now)
	if err != nil || len(again) != 0 {
		t.Fatalf("second Lease: n=%d err=%v", len(again), err)
	}

	done := ops[store.OpPublishActivity]
	if err := s.Outbox().MarkDone(ctx, done.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	retry := ops[store.OpEmbedMemory]
	if err := s.Outbox().MarkFailed(ctx, retry.ID, now.Add(10*time.Second), "embedder down", false); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	dead := ops[store.OpRecomputeDaily]
	if err := s.Outbox().MarkFailed(ctx, dead.ID, now, "poison", true); err != nil {
		t.Fatalf("MarkFailed dead: %v", err)
	}

	early, err := s.Outbox().Lease(ctx, 100, time.Minute, now.Add(5*time.Second))
	if err != nil || len(early) != 0 {
		t.Fatalf("Lease before retry time: n=%d err=%v", len(early), err)
	}
	later, err := s.Outbox().Lease(ctx, 100, time.Minute, now.Add(15*time.Second))
	if err != nil {
		t.Fatalf("Lease after retry time: %v", err)
	}
	if len(later) != 1 || later[0].ID != retry.ID || later[0].Attempts != 1 {
		t.Fatalf("expected only the retried row with one attempt, got %+v", later)
	}

	// An expired lease makes a row ready again.
	expired, err := s.Outbox().Lease(ctx, 100, time.Minute, now.Add(15*time.Second+2*time.Minute))
	if err != nil || len(expired) != 1 || expired[0].ID != retry.ID {
		t.Fatalf("Lease after expiry: got=%+v err=%v", expired, err)
	}
}
