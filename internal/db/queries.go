package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const chunkColumns = `id, document_id, chunk_id, text, source, page, upload_date`

// InsertChunksBatch inserts multiple chunks in one round trip
func (db *DB) InsertChunksBatch(ctx context.Context, chunks []*Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO chunks (id, document_id, chunk_id, text, embedding, source, page, upload_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			chunk.ID, chunk.DocumentID, chunk.ChunkID, chunk.Text, chunk.Embedding,
			chunk.Metadata.Source, chunk.Metadata.Page, chunk.Metadata.UploadDate,
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	return nil
}

// SearchSimilarChunks finds the chunks closest to embedding by cosine distance,
// optionally restricted to one document.
func (db *DB) SearchSimilarChunks(ctx context.Context, embedding []float32, limit int, documentID *uuid.UUID) ([]*Chunk, error) {
	vec := pgvector.NewVector(embedding)

	query := `SELECT ` + chunkColumns + `
		 FROM chunks
		 WHERE embedding IS NOT NULL`
	args := []any{vec, limit}
	if documentID != nil {
		query += ` AND document_id = $3`
		args = append(args, *documentID)
	}
	query += `
		 ORDER BY embedding <=> $1
		 LIMIT $2`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetDocumentChunks returns the chunks of one document ordered by chunk id.
func (db *DB) GetDocumentChunks(ctx context.Context, documentID uuid.UUID) ([]*Chunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+chunkColumns+`
		 FROM chunks WHERE document_id = $1
		 ORDER BY chunk_id`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get document chunks: %w", err)
	}
	defer rows.Close()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrDocumentNotFound
	}
	return chunks, nil
}

// ListDocuments groups chunks by source filename. The earliest chunk of each
// source supplies the document id and upload date.
func (db *DB) ListDocuments(ctx context.Context) ([]*DocumentSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (source) source, document_id, upload_date,
		        COUNT(*) OVER (PARTITION BY source)
		 FROM chunks
		 ORDER BY source, upload_date, chunk_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*DocumentSummary
	for rows.Next() {
		var (
			doc   DocumentSummary
			docID uuid.UUID
		)
		if err := rows.Scan(&doc.Filename, &docID, &doc.UploadDate, &doc.Chunks); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.DocumentID = docID.String()
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes every chunk of a document and reports how many were deleted.
func (db *DB) DeleteDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountDocuments counts distinct document ids in the chunk table.
func (db *DB) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT document_id) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func scanChunks(rows pgx.Rows) ([]*Chunk, error) {
	var chunks []*Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.ChunkID, &chunk.Text,
			&chunk.Metadata.Source, &chunk.Metadata.Page, &chunk.Metadata.UploadDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Metadata.DocumentID = chunk.DocumentID.String()
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// UpsertSession stores the raw bytes of a session, replacing any previous copy.
func (db *DB) UpsertSession(ctx context.Context, sessionID string, data []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, pdf_bytes) VALUES ($1, $2)
		 ON CONFLICT (session_id) DO UPDATE SET pdf_bytes = EXCLUDED.pdf_bytes`,
		sessionID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// GetSession returns the stored bytes. found is false when the row is absent.
func (db *DB) GetSession(ctx context.Context, sessionID string) (data []byte, found bool, err error) {
	err = db.pool.QueryRow(ctx, `SELECT pdf_bytes FROM sessions WHERE session_id = $1`, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}
	return data, true, nil
}

// DeleteSession deletes a session row and reports whether one existed.
func (db *DB) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSessions returns all stored session ids, oldest first.
func (db *DB) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT session_id FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
