package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// ClassName is the Weaviate class holding memory records.
const ClassName = "WellnessMemory"

// Weaviate mirrors memory records into a Weaviate class and searches them
// with nearVector. Queries Weaviate cannot score (zero or empty vectors) are
// answered by the fallback index so similarity semantics stay identical.
type Weaviate struct {
	client   *weaviate.Client
	fallback Index
	log      zerolog.Logger
}

// NewWeaviate connects to baseURL (host:port without scheme).
func NewWeaviate(baseURL string, fallback Index, log zerolog.Logger) (*Weaviate, error) {
	cl, err := weaviate.NewClient(weaviate.Config{Scheme: "http", Host: baseURL})
	if err != nil {
		return nil, err
	}
	return &Weaviate{client: cl, fallback: fallback, log: log}, nil
}

func (w *Weaviate) Search(ctx context.Context, q Query) ([]model.MemoryHit, error) {
	if IsZero(q.Vector) {
		return w.fallback.Search(ctx, q)
	}
	k := topK(q)

	where := filters.Where().WithPath([]string{"userId"}).WithOperator(filters.Equal).WithValueText(q.UserID)
	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			cats[i] = string(c)
		}
		where = filters.Where().WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{
			where,
			filters.Where().WithPath([]string{"category"}).WithOperator(filters.ContainsAny).WithValueText(cats...),
		})
	}
	// Over-fetch so equal-score ties can be re-ordered by recency.
	near := w.client.GraphQL().NearVectorArgBuilder().WithVector(q.Vector)
	resp, err := w.client.GraphQL().Get().
		WithClassName(ClassName).
		WithWhere(where).
		WithNearVector(near).
		WithLimit(k * 2).
		WithFields(
			gql.Field{Name: "recordId"},
			gql.Field{Name: "category"},
			gql.Field{Name: "text"},
			gql.Field{Name: "createdAt"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "distance"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(resp.Errors) > 0 {
		b, _ := json.Marshal(resp.Errors)
		return nil, fmt.Errorf("weaviate graphql: %s", b)
	}
	hits := parseHits(resp.Data)
	w.log.Debug().Str("user_id", q.UserID).Int("hits", len(hits)).Msg("weaviate search completed")
	return Rank(hits, k), nil
}

func (w *Weaviate) Upsert(ctx context.Context, rec model.EmbeddingRecord) error {
	exists, err := w.client.Data().Checker().WithClassName(ClassName).WithID(rec.ID).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate check %s: %w", rec.ID, err)
	}
	if exists {
		return nil
	}
	_, err = w.client.Data().Creator().
		WithClassName(ClassName).
		WithID(rec.ID).
		WithProperties(map[string]interface{}{
			"recordId":  rec.ID,
			"userId":    rec.UserID,
			"category":  string(rec.Category),
			"text":      rec.Text,
			"sourceId":  rec.SourceID,
			"createdAt": rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		}).
		WithVector(rec.Vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate create %s: %w", rec.ID, err)
	}
	return nil
}

// HealthPing reports whether Weaviate answers its readiness probe.
func (w *Weaviate) HealthPing(ctx context.Context) error {
	ready, err := w.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("weaviate not ready")
	}
	return nil
}

// parseHits converts a GraphQL Get payload into hits scored as cosine
// similarity (1 - cosine distance).
func parseHits(data map[string]interface{}) []model.MemoryHit {
	getData, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := getData[ClassName].([]interface{})
	if !ok {
		return nil
	}
	out := make([]model.MemoryHit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		hit := model.MemoryHit{}
		hit.RecordID, _ = m["recordId"].(string)
		cat, _ := m["category"].(string)
		hit.Category = model.MemoryCategory(cat)
		hit.Text, _ = m["text"].(string)
		if ts, ok := m["createdAt"].(string); ok {
			hit.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["distance"].(type) {
			case float64:
				hit.Score = 1 - v
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					hit.Score = 1 - f
				}
			}
		}
		out = append(out, hit)
	}
	return out
}
