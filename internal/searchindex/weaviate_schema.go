package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate creates the memory class when it does not exist yet.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cl, err := weaviate.NewClient(weaviate.Config{Scheme: "http", Host: baseURL})
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	ex, err := cl.Schema().ClassGetter().WithClassName(ClassName).Do(cctx)
	if err == nil && ex != nil {
		return nil
	}
	class := &models.Class{
		Class:             ClassName,
		Vectorizer:        "none",
		VectorIndexConfig: map[string]interface{}{"distance": "cosine"},
		Properties: []*models.Property{
			{Name: "recordId", DataType: []string{"text"}},
			{Name: "userId", DataType: []string{"text"}},
			{Name: "category", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "sourceId", DataType: []string{"text"}},
			{Name: "createdAt", DataType: []string{"date"}},
		},
	}
	if err := cl.Schema().ClassCreator().WithClass(class).Do(cctx); err != nil {
		return fmt.Errorf("create class %s: %w", ClassName, err)
	}
	return nil
}
