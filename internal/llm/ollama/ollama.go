package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	embedollama "github.com/gab-cat/cold-start-sub000/internal/embeddings/ollama"
	"github.com/gab-cat/cold-start-sub000/internal/llm"
)

// Generator calls Ollama's /api/generate with a JSON schema format.
type Generator struct {
	client      *resty.Client
	model       string
	temperature float64
}

func New(baseURL, model string) *Generator {
	return &Generator{client: embedollama.NewClient(baseURL, 2*time.Minute), model: model, temperature: 0.2}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  json.RawMessage `json:"format"`
	Options map[string]any  `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (g *Generator) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema) ([]byte, error) {
	req := generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Format:  schema.JSON(),
		Options: map[string]any{"temperature": g.temperature},
	}
	var out generateResponse
	resp, err := g.client.R().SetContext(ctx).SetBody(&req).SetResult(&out).Post("/api/generate")
	if err != nil {
		return nil, fmt.Errorf("ollama generate %s: %w", schema.Name, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama generate %s: status %d: %s", schema.Name, resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama generate %s: %s", schema.Name, out.Error)
	}
	if strings.TrimSpace(out.Response) == "" {
		return nil, llm.ErrEmptyResponse
	}
	return llm.ExtractJSON(out.Response), nil
}

func (g *Generator) HealthPing(ctx context.Context) error {
	return embedollama.PingModel(ctx, g.client, g.model)
}
