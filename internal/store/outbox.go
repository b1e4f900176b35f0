package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// Operation names stored in outbox.op. Handlers must be idempotent.
const (
	OpEmbedMemory     = "embed_memory"
	OpRecomputeDaily  = "recompute_daily"
	OpPublishActivity = "publish_activity"
)

// Outbox row states.
const (
	OutboxPending = "pending"
	OutboxDone    = "done"
	OutboxDead    = "dead"
)

// OutboxMessage is a unit of deferred work written alongside a domain write.
type OutboxMessage struct {
	Op          string
	AggregateID string
	Payload     []byte
}

// OutboxRow is a leased outbox message.
type OutboxRow struct {
	ID          int64
	Op          string
	AggregateID string
	Payload     []byte
	Attempts    int
	CreatedAt   time.Time
}

// EmbedPayload asks the worker to embed text into a memory record.
type EmbedPayload struct {
	RecordID  string               `json:"recordId"`
	UserID    string               `json:"userId"`
	Category  model.MemoryCategory `json:"category"`
	Text      string               `json:"text"`
	SourceID  string               `json:"sourceId"`
	CreatedAt time.Time            `json:"createdAt"`
}

// DailyPayload asks the worker to recompute the summary of the local day
// containing OccurredAt.
type DailyPayload struct {
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

var memoryNamespace = uuid.MustParse("7d0f2f0e-4c7c-4f57-9d4a-3f4d3c6b8a11")

// MemoryRecordID derives a stable record id so redelivered embeddings collapse
// onto one record.
func MemoryRecordID(category model.MemoryCategory, sourceID string) string {
	return uuid.NewSHA1(memoryNamespace, []byte(string(category)+":"+sourceID)).String()
}

// ActivityOutbox builds the messages written with a new activity.
func ActivityOutbox(a model.Activity) ([]OutboxMessage, error) {
	embed, err := json.Marshal(EmbedPayload{
		RecordID:  MemoryRecordID(model.MemoryActivity, a.ID),
		UserID:    a.UserID,
		Category:  model.MemoryActivity,
		Text:      a.Describe(),
		SourceID:  a.ID,
		CreatedAt: a.LoggedAt,
	})
	if err != nil {
		return nil, err
	}
	daily, err := json.Marshal(DailyPayload{UserID: a.UserID, OccurredAt: a.OccurredAt()})
	if err != nil {
		return nil, err
	}
	event, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return []OutboxMessage{
		{Op: OpEmbedMemory, AggregateID: a.ID, Payload: embed},
		{Op: OpRecomputeDaily, AggregateID: a.ID, Payload: daily},
		{Op: OpPublishActivity, AggregateID: a.ID, Payload: event},
	}, nil
}

// ConversationOutbox builds the memory message written with a new turn.
func ConversationOutbox(t model.ConversationTurn) ([]OutboxMessage, error) {
	embed, err := json.Marshal(EmbedPayload{
		RecordID:  MemoryRecordID(model.MemoryConversation, t.ID),
		UserID:    t.UserID,
		Category:  model.MemoryConversation,
		Text:      t.MemoryText(),
		SourceID:  t.ID,
		CreatedAt: t.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return []OutboxMessage{{Op: OpEmbedMemory, AggregateID: t.ID, Payload: embed}}, nil
}

// GoalOutbox builds the memory message written with a new goal.
func GoalOutbox(g model.Goal) ([]OutboxMessage, error) {
	embed, err := json.Marshal(EmbedPayload{
		RecordID:  MemoryRecordID(model.MemoryGoal, g.ID),
		UserID:    g.UserID,
		Category:  model.MemoryGoal,
		Text:      g.Describe(),
		SourceID:  g.ID,
		CreatedAt: g.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return []OutboxMessage{{Op: OpEmbedMemory, AggregateID: g.ID, Payload: embed}}, nil
}
