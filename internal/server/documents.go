package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dream-ai/docuchat/internal/db"
	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/dream-ai/docuchat/internal/rag"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ternarybob/arbor"
)

const variantCorpus = "corpus"

// DocumentRepository reads and deletes stored chunk records
type DocumentRepository interface {
	ListDocuments(ctx context.Context) ([]*db.DocumentSummary, error)
	GetDocumentChunks(ctx context.Context, documentID uuid.UUID) ([]*db.Chunk, error)
	DeleteDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
	CountDocuments(ctx context.Context) (int, error)
}

// DocumentProcessor ingests a PDF on disk
type DocumentProcessor interface {
	Process(ctx context.Context, filePath, filename string) (uuid.UUID, error)
}

// Answerer answers questions over the corpus
type Answerer interface {
	Answer(ctx context.Context, question string, documentID *uuid.UUID) (*rag.Answer, error)
}

// CorpusHandler serves the multi-document API
type CorpusHandler struct {
	Documents DocumentRepository
	Processor DocumentProcessor
	Responder Answerer
	Logger    arbor.ILogger
	Metrics   *metrics.Metrics
	// UploadDir holds uploads while they are processed; empty means os.TempDir
	UploadDir string
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type corpusChatRequest struct {
	Message    string           `json:"message"`
	DocumentID string           `json:"document_id,omitempty"`
	History    []historyMessage `json:"history,omitempty"`
}

type corpusChatResponse struct {
	MessageID string       `json:"message_id"`
	Response  string       `json:"response"`
	Sources   []rag.Source `json:"sources"`
}

type chunkView struct {
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
	Page    *int   `json:"page"`
	Source  string `json:"source"`
}

func (h *CorpusHandler) Register(g *echo.Group) {
	g.POST("/upload", h.upload)
	g.POST("/chat", h.chat)
	g.GET("/documents", h.list)
	g.GET("/documents/:id", h.get)
	g.DELETE("/documents/:id", h.delete)
	g.GET("/db-status", h.status)
}

func (h *CorpusHandler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	name, data, err := readPDF(c)
	if err != nil {
		h.Metrics.Upload(variantCorpus, "rejected")
		return err
	}

	path, err := h.spool(data)
	if err != nil {
		h.Metrics.Upload(variantCorpus, "error")
		return err
	}
	defer os.Remove(path)

	docID, err := h.Processor.Process(ctx, path, name)
	if err != nil {
		h.Metrics.Upload(variantCorpus, "error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing PDF: "+err.Error())
	}
	h.Metrics.Upload(variantCorpus, "ok")

	return c.JSON(http.StatusOK, map[string]string{
		"status":      "success",
		"message":     fmt.Sprintf("Successfully processed %s", name),
		"document_id": docID.String(),
	})
}

// spool writes the upload to a temporary file for the extractor
func (h *CorpusHandler) spool(data []byte) (string, error) {
	f, err := os.CreateTemp(h.UploadDir, "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

func (h *CorpusHandler) chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req corpusChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	var filter *uuid.UUID
	if req.DocumentID != "" {
		id, err := uuid.Parse(req.DocumentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid document_id")
		}
		filter = &id
	}

	start := time.Now()
	answer, err := h.Responder.Answer(ctx, req.Message, filter)
	if err != nil {
		h.Metrics.Chat(variantCorpus, "error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error generating answer: "+err.Error())
	}
	h.Metrics.Chat(variantCorpus, "ok")

	h.Logger.Debug().Int("sources", len(answer.Sources)).Str("elapsed", time.Since(start).String()).Msg("Corpus chat answered")
	return c.JSON(http.StatusOK, corpusChatResponse{
		MessageID: uuid.NewString(),
		Response:  answer.Text,
		Sources:   answer.Sources,
	})
}

func (h *CorpusHandler) list(c echo.Context) error {
	docs, err := h.Documents.ListDocuments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error listing documents: "+err.Error())
	}
	if docs == nil {
		docs = []*db.DocumentSummary{}
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": docs})
}

func (h *CorpusHandler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid document id")
	}

	chunks, err := h.Documents.GetDocumentChunks(c.Request().Context(), id)
	if errors.Is(err, db.ErrDocumentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error loading document: "+err.Error())
	}

	views := make([]chunkView, 0, len(chunks))
	for _, ch := range chunks {
		views = append(views, chunkView{ChunkID: ch.ChunkID, Text: ch.Text, Page: ch.Metadata.Page, Source: ch.Metadata.Source})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"document_id": id.String(),
		"chunks":      views,
	})
}

func (h *CorpusHandler) delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid document id")
	}

	deleted, err := h.Documents.DeleteDocument(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error deleting document: "+err.Error())
	}
	if deleted == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}

	h.Logger.Info().Str("document_id", id.String()).Int64("chunks", deleted).Msg("Document deleted")
	return c.JSON(http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Document %s deleted successfully", id),
		"deleted": deleted,
	})
}

func (h *CorpusHandler) status(c echo.Context) error {
	n, err := h.Documents.CountDocuments(c.Request().Context())
	if err != nil {
		h.Logger.Warn().Err(err).Msg("Document store unreachable")
		return c.JSON(http.StatusOK, map[string]any{"mode": "unreachable", "documents": 0})
	}
	return c.JSON(http.StatusOK, map[string]any{"mode": "connected", "documents": n})
}
