package searchindex

import (
	"context"
	"math"
	"sort"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// DefaultTopK is the number of semantic chunks handed to the reasoning prompt.
const DefaultTopK = 5

// Query describes a similarity search over one user's memory.
type Query struct {
	UserID     string
	Vector     []float32
	TopK       int
	Categories []model.MemoryCategory
}

// Index provides similarity search over embedding records.
type Index interface {
	// Search returns at most TopK hits ordered by descending similarity, ties
	// broken by the most recent record.
	Search(ctx context.Context, q Query) ([]model.MemoryHit, error)
	// Upsert makes rec searchable. It is idempotent on rec.ID.
	Upsert(ctx context.Context, rec model.EmbeddingRecord) error
}

// Cosine returns the cosine similarity of a and b. Empty, zero-norm and
// mismatched-dimension pairs score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IsZero reports whether v carries no direction.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Rank orders hits by score then recency and keeps the first k.
func Rank(hits []model.MemoryHit, k int) []model.MemoryHit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.After(hits[j].CreatedAt)
		}
		return hits[i].RecordID < hits[j].RecordID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func topK(q Query) int {
	if q.TopK <= 0 {
		return DefaultTopK
	}
	return q.TopK
}
