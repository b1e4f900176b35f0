package model

import "time"

// MemoryCategory tags what an embedding record was derived from.
type MemoryCategory string

const (
	MemoryConversation MemoryCategory = "conversation"
	MemoryActivity     MemoryCategory = "activity"
	MemoryGoal         MemoryCategory = "goal"
	MemoryNote         MemoryCategory = "note"
)

// EmbeddingRecord is an append-only semantic memory entry.
type EmbeddingRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Category  MemoryCategory `json:"category"`
	Text      string         `json:"text"`
	Vector    []float32      `json:"vector,omitempty"`
	SourceID  string         `json:"sourceId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MemoryHit is a similarity search result.
type MemoryHit struct {
	RecordID  string         `json:"recordId"`
	Category  MemoryCategory `json:"category"`
	Text      string         `json:"text"`
	Score     float64        `json:"score"`
	CreatedAt time.Time      `json:"createdAt"`
}
