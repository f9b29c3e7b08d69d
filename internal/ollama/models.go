package ollama

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Chat model families in order of preference for document Q&A.
var preferredModels = []string{"llama3.2", "llama3.1", "qwen2.5", "mistral", "llama3", "gemma"}

func isEmbeddingModel(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "embed") || strings.Contains(name, "minilm")
}

// ModelInfo describes one installed model.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// ListModelsResponse is the body of GET /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelSelector chooses which installed model answers questions.
type ModelSelector struct {
	client *Client
}

func NewModelSelector(client *Client) *ModelSelector {
	return &ModelSelector{client: client}
}

// ListModels returns the models installed on the server.
func (ms *ModelSelector) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := ms.client.call(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tags ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	return tags.Models, nil
}

// SelectBestModel returns the first installed model from a preferred family,
// or failing that the largest chat model.
func (ms *ModelSelector) SelectBestModel(ctx context.Context) (string, error) {
	models, err := ms.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", fmt.Errorf("no models available")
	}
	return pickChatModel(models)
}

func pickChatModel(models []ModelInfo) (string, error) {
	chat := slices.DeleteFunc(slices.Clone(models), func(m ModelInfo) bool { return isEmbeddingModel(m.Name) })
	if len(chat) == 0 {
		return "", fmt.Errorf("no chat models available")
	}

	for _, family := range preferredModels {
		i := slices.IndexFunc(chat, func(m ModelInfo) bool {
			return strings.Contains(strings.ToLower(m.Name), family)
		})
		if i >= 0 {
			return chat[i].Name, nil
		}
	}

	largest := slices.MaxFunc(chat, func(a, b ModelInfo) int { return cmp.Compare(a.Size, b.Size) })
	return largest.Name, nil
}

// GetDefaultModel returns defaultModel when it is installed and otherwise
// falls back to SelectBestModel.
func (ms *ModelSelector) GetDefaultModel(ctx context.Context, defaultModel string) (string, error) {
	models, err := ms.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if defaultModel != "" && slices.ContainsFunc(models, func(m ModelInfo) bool { return m.Name == defaultModel }) {
		return defaultModel, nil
	}
	if len(models) == 0 {
		return "", fmt.Errorf("no models available")
	}
	return pickChatModel(models)
}
