package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ErrDocumentNotFound is returned when no chunk carries the requested document id.
var ErrDocumentNotFound = errors.New("document not found")

// ChunkMetadata describes where a chunk came from
type ChunkMetadata struct {
	Source     string
	DocumentID string
	UploadDate time.Time
	Page       *int
}

// Chunk represents a text chunk with embedding
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	ChunkID    int
	Text       string
	Embedding  *pgvector.Vector
	Metadata   ChunkMetadata
}

// DocumentSummary is one entry of the document listing, derived by grouping chunks.
type DocumentSummary struct {
	Filename   string    `json:"filename"`
	DocumentID string    `json:"document_id"`
	UploadDate time.Time `json:"upload_date"`
	Chunks     int       `json:"chunks"`
}
