package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dream-ai/docuchat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body["model"])
		assert.Equal(t, "hello", body["prompt"])
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := NewTextEmbedder(srv.URL+"/", "")
	vec, err := e.Embed(context.Background(), "  hello ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestTextEmbedder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewTextEmbedder(srv.URL, "missing")

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = e.Embed(context.Background(), "   ")
	assert.Error(t, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := config.Default()
	e, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &TextEmbedder{}, e)

	cfg.Embeddings.Provider = "word2vec"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
