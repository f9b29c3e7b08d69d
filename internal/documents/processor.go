package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/dream-ai/docuchat/internal/db"
	"github.com/dream-ai/docuchat/internal/embeddings"
	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/ternarybob/arbor"
)

// ChunkWriter persists chunk records
type ChunkWriter interface {
	InsertChunksBatch(ctx context.Context, chunks []*db.Chunk) error
}

// Processor turns an uploaded PDF into embedded chunk records
type Processor struct {
	store    ChunkWriter
	embedder embeddings.Embedder
	splitter *Splitter
	logger   arbor.ILogger
	metrics  *metrics.Metrics

	// extract is swapped in tests
	extract func(filePath string) ([]Page, error)
	now     func() time.Time
}

// NewProcessor creates a new document processor
func NewProcessor(store ChunkWriter, embedder embeddings.Embedder, splitter *Splitter, logger arbor.ILogger, m *metrics.Metrics) *Processor {
	return &Processor{
		store:    store,
		embedder: embedder,
		splitter: splitter,
		logger:   logger,
		metrics:  m,
		extract:  ExtractPages,
		now:      time.Now,
	}
}

// Process extracts, splits and embeds the PDF at filePath and stores the
// chunks under a fresh document id. Chunks whose embedding fails are skipped;
// the survivors are numbered 0..n-1.
func (p *Processor) Process(ctx context.Context, filePath, filename string) (uuid.UUID, error) {
	pages, err := p.extract(filePath)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to extract text: %w", err)
	}

	docID := uuid.New()
	uploadDate := p.now().UTC()
	pieces := p.splitter.SplitPages(pages)

	chunks := make([]*db.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vec, err := p.embedder.Embed(ctx, piece.Text)
		if err != nil {
			p.logger.Warn().Err(err).Str("document_id", docID.String()).Int("chunk", i).Msg("Skipping chunk, embedding failed")
			p.metrics.EmbedFailure()
			continue
		}

		embedding := pgvector.NewVector(vec)
		page := piece.Page
		chunks = append(chunks, &db.Chunk{
			ID:         uuid.New(),
			DocumentID: docID,
			ChunkID:    len(chunks),
			Text:       piece.Text,
			Embedding:  &embedding,
			Metadata: db.ChunkMetadata{
				Source:     filename,
				DocumentID: docID.String(),
				UploadDate: uploadDate,
				Page:       &page,
			},
		})
	}

	if len(chunks) > 0 {
		if err := p.store.InsertChunksBatch(ctx, chunks); err != nil {
			return uuid.Nil, fmt.Errorf("failed to store chunks: %w", err)
		}
	}

	p.logger.Info().
		Str("document_id", docID.String()).
		Str("filename", filename).
		Int("pages", len(pages)).
		Int("chunks", len(chunks)).
		Int("skipped", len(pieces)-len(chunks)).
		Msg("Document processed")

	return docID, nil
}
