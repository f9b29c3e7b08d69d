package embeddings

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiEmbedder generates embeddings with the Gemini API
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewGeminiEmbedder creates a Gemini embedder. dimensions <= 0 keeps the model default.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int32) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" || model == "nomic-embed-text" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

// Embed generates an embedding for the given text
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var cfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		dim := e.dimensions
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	return result.Embeddings[0].Values, nil
}
