package llm

import (
	"context"
	"fmt"

	"github.com/dream-ai/docuchat/internal/ollama"
)

// OllamaModel generates answers with a local Ollama server
type OllamaModel struct {
	client      *ollama.Client
	model       string
	temperature float32
}

// NewOllamaModel resolves the model against what the server has installed.
// A configured model is used as-is when the server cannot be listed.
func NewOllamaModel(ctx context.Context, baseURL, model string, temperature float32) (*OllamaModel, error) {
	client := ollama.NewClient(baseURL)

	name, err := ollama.NewModelSelector(client).GetDefaultModel(ctx, model)
	if err != nil {
		if model == "" {
			return nil, fmt.Errorf("failed to select ollama model: %w", err)
		}
		name = model
	}

	return &OllamaModel{client: client, model: name, temperature: temperature}, nil
}

func (m *OllamaModel) Name() string { return m.model }

// Complete sends one non-streaming generate request
func (m *OllamaModel) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := m.client.Generate(ctx, &ollama.GenerateRequest{
		Model:   m.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": m.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return out, nil
}
