package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Provider embeds text with the Gemini embeddings API.
type Provider struct {
	client *genai.Client
	model  string
	dims   int32
}

// New creates a Provider. dims sets the output dimensionality so vectors
// match the configured index.
func New(ctx context.Context, apiKey, model string, dims int) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Provider{client: client, model: model, dims: int32(dims)}, nil
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_QUERY"}
	if p.dims > 0 {
		cfg.OutputDimensionality = genai.Ptr(p.dims)
	}
	result, err := p.client.Models.EmbedContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// HealthPing embeds a fixed probe string.
func (p *Provider) HealthPing(ctx context.Context) error {
	_, err := p.Embed(ctx, "health-check")
	return err
}
