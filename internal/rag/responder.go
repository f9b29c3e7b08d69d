package rag

import (
	"context"
	"fmt"

	"github.com/dream-ai/docuchat/internal/llm"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

// Source attributes an answer to one retrieved chunk
type Source struct {
	Document string `json:"document"`
	Page     *int   `json:"page"`
	Chunk    int    `json:"chunk"`
}

// Answer is a generated response and the chunks it was grounded on
type Answer struct {
	Text    string
	Sources []Source
}

// Responder answers questions over the document corpus
type Responder struct {
	retriever *Retriever
	model     llm.ChatModel
	logger    arbor.ILogger
}

// NewResponder creates a corpus responder
func NewResponder(retriever *Retriever, model llm.ChatModel, logger arbor.ILogger) *Responder {
	return &Responder{retriever: retriever, model: model, logger: logger}
}

// Answer retrieves context for question and asks the model once. Retrieval
// failures count as an empty result; model failures are returned.
func (r *Responder) Answer(ctx context.Context, question string, documentID *uuid.UUID) (*Answer, error) {
	chunks, err := r.retriever.Retrieve(ctx, question, documentID)
	if err != nil {
		r.logger.Error().Err(err).Msg("Retrieval failed, answering without context")
		chunks = nil
	}

	if len(chunks) == 0 {
		return &Answer{Text: NoInformationAnswer, Sources: []Source{}}, nil
	}

	texts := make([]string, 0, len(chunks))
	sources := make([]Source, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)

		name := c.Metadata.Source
		if name == "" {
			name = "Unknown"
		}
		sources = append(sources, Source{Document: name, Page: c.Metadata.Page, Chunk: c.ChunkID})
	}

	text, err := r.model.Complete(ctx, BuildPrompt(BuildContext(texts), question))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	r.logger.Debug().Int("chunks", len(chunks)).Str("model", r.model.Name()).Msg("Answered corpus question")
	return &Answer{Text: text, Sources: sources}, nil
}
