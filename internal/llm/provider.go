// Package llm wraps the chat models that turn a grounded prompt into an answer.
package llm

import (
	"context"
	"fmt"

	"github.com/dream-ai/docuchat/config"
	"github.com/ternarybob/arbor"
)

// ChatModel answers a single prompt without streaming
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New builds the chat model selected by llm.provider
func New(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (ChatModel, error) {
	var (
		model ChatModel
		err   error
	)
	switch cfg.LLM.Provider {
	case "ollama":
		model, err = NewOllamaModel(ctx, cfg.Ollama.BaseURL, firstNonEmpty(cfg.LLM.Model, cfg.Ollama.DefaultModel), cfg.LLM.Temperature)
	case "claude":
		model, err = NewClaudeModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature, cfg.LLM.Timeout)
	case "gemini":
		model, err = NewGeminiModel(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("provider", cfg.LLM.Provider).Str("model", model.Name()).Msg("Chat model ready")
	return model, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
