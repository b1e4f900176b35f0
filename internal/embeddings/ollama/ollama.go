package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider calls the Ollama embeddings API.
type Provider struct {
	client *resty.Client
	model  string
}

// New creates a Provider for baseURL (scheme optional) and model.
func New(baseURL, model string) *Provider {
	return &Provider{client: NewClient(baseURL, 30*time.Second), model: model}
}

// NewClient builds the resty client shared by the Ollama adapters.
func NewClient(baseURL string, timeout time.Duration) *resty.Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}
	req := embedRequest{Model: p.model, Prompt: text}

	resp, err := p.client.R().SetContext(ctx).SetBody(&req).Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		// Missing models come back as 404/500; pull once and retry.
		_, _ = p.client.R().SetContext(ctx).SetBody(map[string]string{"name": p.model}).Post("/api/pull")
		resp, err = p.client.R().SetContext(ctx).SetBody(&req).Post("/api/embeddings")
		if err != nil {
			return nil, fmt.Errorf("ollama request after pull: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode(), resp.String())
		}
	}

	var out embedResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", out.Error)
	}
	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing checks that the configured model is present in /api/tags.
func (p *Provider) HealthPing(ctx context.Context) error {
	return PingModel(ctx, p.client, p.model)
}

// PingModel reports whether model is available on the Ollama server.
func PingModel(ctx context.Context, client *resty.Client, model string) error {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := client.R().SetContext(ctx).SetResult(&data).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	want := baseModelName(model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

func baseModelName(name string) string {
	return strings.SplitN(name, ":", 2)[0]
}
