package rag

import (
	"context"
	"fmt"

	"github.com/dream-ai/docuchat/internal/db"
	"github.com/dream-ai/docuchat/internal/embeddings"
	"github.com/google/uuid"
)

// ChunkSearcher runs nearest-neighbour search over stored chunks
type ChunkSearcher interface {
	SearchSimilarChunks(ctx context.Context, embedding []float32, limit int, documentID *uuid.UUID) ([]*db.Chunk, error)
}

// Retriever handles RAG retrieval using vector similarity search
type Retriever struct {
	store    ChunkSearcher
	embedder embeddings.Embedder
	topK     int
}

// NewRetriever creates a new RAG retriever
func NewRetriever(store ChunkSearcher, embedder embeddings.Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve returns up to topK chunks closest to query, nearest first. A
// non-nil documentID restricts the search to that document.
func (r *Retriever) Retrieve(ctx context.Context, query string, documentID *uuid.UUID) ([]*db.Chunk, error) {
	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	chunks, err := r.store.SearchSimilarChunks(ctx, queryEmbedding, r.topK, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	return chunks, nil
}
