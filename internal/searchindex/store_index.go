package searchindex

import (
	"context"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

// StoreIndex scans the user's records in the Domain Store and scores each
// against the query vector.
type StoreIndex struct {
	memories store.Memories
}

func NewStoreIndex(memories store.Memories) *StoreIndex {
	return &StoreIndex{memories: memories}
}

func (s *StoreIndex) Search(ctx context.Context, q Query) ([]model.MemoryHit, error) {
	recs, err := s.memories.List(ctx, q.UserID, q.Categories...)
	if err != nil {
		return nil, err
	}
	hits := make([]model.MemoryHit, 0, len(recs))
	for _, r := range recs {
		hits = append(hits, model.MemoryHit{
			RecordID:  r.ID,
			Category:  r.Category,
			Text:      r.Text,
			Score:     Cosine(q.Vector, r.Vector),
			CreatedAt: r.CreatedAt,
		})
	}
	return Rank(hits, topK(q)), nil
}

// Upsert is a no-op: records are already persisted in the store.
func (s *StoreIndex) Upsert(context.Context, model.EmbeddingRecord) error { return nil }
