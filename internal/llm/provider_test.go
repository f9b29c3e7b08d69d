package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dream-ai/docuchat/config"
	"github.com/dream-ai/docuchat/internal/logging"
	"github.com/dream-ai/docuchat/internal/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(ollama.ListModelsResponse{Models: []ollama.ModelInfo{{Name: "llama3.2:latest", Size: 10}}})
		case "/api/generate":
			var req ollama.GenerateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			fmt.Fprintf(w, `{"response":"echo: %s","done":true}`+"\n", req.Prompt)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestNew_OllamaPicksInstalledModel(t *testing.T) {
	srv := fakeOllama(t)
	defer srv.Close()

	cfg := config.Default()
	cfg.Ollama.BaseURL = srv.URL

	model, err := New(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:latest", model.Name())

	out, err := model.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
}

func TestNew_CloudProvidersNeedKeys(t *testing.T) {
	for _, provider := range []string{"claude", "gemini"} {
		t.Run(provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.LLM.Provider = provider
			cfg.LLM.APIKey = ""
			_, err := New(context.Background(), cfg, logging.New("error"))
			assert.Error(t, err)
		})
	}
}

func TestNew_ClaudeDefaults(t *testing.T) {
	m, err := NewClaudeModel("sk-test", "", 0, 0.2, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultClaudeModel, m.Name())
	assert.Equal(t, 4096, m.maxTokens)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "gpt"
	_, err := New(context.Background(), cfg, logging.New("error"))
	assert.Error(t, err)
}
