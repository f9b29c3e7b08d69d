package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dream-ai/docuchat/internal/ollama"
)

const defaultOllamaModel = "nomic-embed-text"

var errEmptyText = errors.New("text cannot be empty")

// TextEmbedder embeds text with a model served by Ollama.
type TextEmbedder struct {
	client *ollama.Client
	model  string
}

func NewTextEmbedder(baseURL, model string) *TextEmbedder {
	if model == "" {
		model = defaultOllamaModel
	}
	return &TextEmbedder{client: ollama.NewClient(baseURL), model: model}
}

func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errEmptyText
	}
	vec, err := e.client.Embed(ctx, e.model, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	return vec, nil
}
