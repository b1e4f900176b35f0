package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "mxbai-embed-large", req.Model)
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.5, -0.25}})
	}))
	defer srv.Close()

	vec, err := New(srv.URL, "mxbai-embed-large").Embed(context.Background(), "walked 5km")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, -0.25}, vec)
}

func TestEmbed_PullsMissingModelOnce(t *testing.T) {
	var calls, pulls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/pull":
			pulls++
		case "/api/embeddings":
			calls++
			if calls == 1 {
				http.Error(w, "model not found", http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1}})
		}
	}))
	defer srv.Close()

	vec, err := New(srv.URL, "m").Embed(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, vec, 1)
	require.Equal(t, 1, pulls)
}

func TestEmbed_EmptyText(t *testing.T) {
	_, err := New("localhost:1", "m").Embed(context.Background(), "  ")
	require.Error(t, err)
}

func TestHealthPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"mxbai-embed-large:latest"}]}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, "mxbai-embed-large").HealthPing(context.Background()))
	require.Error(t, New(srv.URL, "nomic-embed-text").HealthPing(context.Background()))
}
