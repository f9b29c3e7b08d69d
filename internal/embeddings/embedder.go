package embeddings

import (
	"context"
	"fmt"

	"github.com/dream-ai/docuchat/config"
)

// Embedder maps text to a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New builds the embedder selected by embeddings.provider
func New(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.Embeddings.Provider {
	case "ollama":
		return NewTextEmbedder(cfg.Ollama.EmbedURL, cfg.Embeddings.TextModel), nil
	case "gemini":
		e, err := NewGeminiEmbedder(ctx, cfg.Embeddings.APIKey, cfg.Embeddings.TextModel, int32(cfg.Embeddings.Dimensions))
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %q", cfg.Embeddings.Provider)
	}
}
