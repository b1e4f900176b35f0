package store

import (
	"context"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// Store exposes persistence operations required by the agent.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
// Every not-found condition is reported as model.ErrNotFound.
type Store interface {
	Profiles() Profiles
	Activities() Activities
	Goals() Goals
	Streaks() Streaks
	Memories() Memories
	Conversations() Conversations
	Summaries() Summaries
	Outbox() Outbox

	HealthPing(ctx context.Context) error
	Close() error
}

type Profiles interface {
	// Create fails with model.ErrConflict when the user or one of its messaging ids exists.
	Create(ctx context.Context, p model.UserProfile) (*model.UserProfile, error)
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	GetByMessagingID(ctx context.Context, platform, externalID string) (*model.UserProfile, error)
	// Update replaces health, preferences and display name.
	Update(ctx context.Context, p model.UserProfile) (*model.UserProfile, error)
	TouchContext(ctx context.Context, userID string, at time.Time) error
}

type Activities interface {
	// Insert stores the activity and, in the same transaction, the outbox rows
	// that derive memory, daily summary and the domain event from it.
	Insert(ctx context.Context, a model.Activity) (*model.Activity, error)
	Get(ctx context.Context, userID, activityID string) (*model.Activity, error)
	// ListRecent returns the newest activities by logging time.
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Activity, error)
	// ListBetween returns activities whose occurrence falls in [from, to), oldest first.
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Activity, error)
}

type Goals interface {
	Create(ctx context.Context, g model.Goal) (*model.Goal, error)
	Get(ctx context.Context, userID, goalID string) (*model.Goal, error)
	// List returns goals in creation order, filtered by status when any are given.
	List(ctx context.Context, userID string, statuses ...model.GoalStatus) ([]model.Goal, error)
	// Update overwrites the mutable fields; the last writer wins.
	Update(ctx context.Context, g model.Goal) error
}

type Streaks interface {
	Get(ctx context.Context, userID string, t model.StreakType) (*model.Streak, error)
	List(ctx context.Context, userID string) ([]model.Streak, error)
	Upsert(ctx context.Context, s model.Streak) error
}

type Memories interface {
	// Insert is idempotent on the record id.
	Insert(ctx context.Context, rec model.EmbeddingRecord) error
	// List returns the user's records, optionally restricted to categories.
	List(ctx context.Context, userID string, categories ...model.MemoryCategory) ([]model.EmbeddingRecord, error)
}

type Conversations interface {
	// Insert is idempotent on the turn id and queues the turn's memory embedding.
	Insert(ctx context.Context, t model.ConversationTurn) error
	ListRecent(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error)
}

type Summaries interface {
	Upsert(ctx context.Context, s model.DailySummary) error
	Get(ctx context.Context, userID, date string) (*model.DailySummary, error)
}

type Outbox interface {
	Enqueue(ctx context.Context, msg OutboxMessage) error
	// Lease claims up to limit ready rows until now+lease. Rows whose lease
	// expires without MarkDone/MarkFailed become ready again.
	Lease(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]OutboxRow, error)
	MarkDone(ctx context.Context, id int64) error
	// MarkFailed records an attempt; dead rows are never leased again.
	MarkFailed(ctx context.Context, id int64, nextAttemptAt time.Time, errMsg string, dead bool) error
}
