package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmsdlc/workshop-qa/config"
)

func TestNewSelectsProvider(t *testing.T) {
	t.Run("ollama", func(t *testing.T) {
		cfg := config.Config{}
		cfg.Embeddings.Provider = config.ProviderOllama
		embedder, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("openai requires api key", func(t *testing.T) {
		cfg := config.Config{}
		cfg.Embeddings.Provider = config.ProviderOpenAI
		_, err := New(cfg)
		require.Error(t, err)
	})

	t.Run("openai with key", func(t *testing.T) {
		cfg := config.Config{OpenAIAPIKey: "test-key"}
		cfg.Embeddings.Provider = config.ProviderOpenAI
		embedder, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := config.Config{}
		cfg.Embeddings.Provider = "mystery"
		_, err := New(cfg)
		require.Error(t, err)
	})
}

func TestOllamaEmbedderCallsPerText(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(Options{OllamaHost: server.URL, Model: "test-model", Dimension: 3})

	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 0.1, vectors[0][0], 1e-6)
}

func TestOllamaEmbedderDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2}})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(Options{OllamaHost: server.URL, Model: "test-model", Dimension: 3})

	_, err := embedder.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}
