package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/gab-cat/cold-start-sub000/internal/llm"
)

// Generator produces schema-constrained JSON with the Gemini API.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Generator{client: client, model: model, temperature: 0.2}, nil
}

func (g *Generator) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema) ([]byte, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(g.temperature),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema.Map(),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate %s: %w", schema.Name, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, llm.ErrEmptyResponse
	}
	return llm.ExtractJSON(text), nil
}

// HealthPing checks that the configured model is visible to the API key.
func (g *Generator) HealthPing(ctx context.Context) error {
	_, err := g.client.Models.Get(ctx, g.model, nil)
	return err
}
