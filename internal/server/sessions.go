package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/dream-ai/docuchat/internal/sessions"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ternarybob/arbor"
)

const variantSession = "session"

// SessionHandler serves the one-PDF-per-session API
type SessionHandler struct {
	Store   sessions.Store
	Cache   *sessions.Cache
	Build   sessions.BuildFunc
	Logger  arbor.ILogger
	Metrics *metrics.Metrics
}

type sessionChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

func (h *SessionHandler) Register(g *echo.Group) {
	g.POST("/upload", h.upload)
	g.POST("/chat", h.chat)
	g.GET("/sessions", h.list)
	g.DELETE("/session/:id", h.delete)
	g.GET("/db-status", h.status)
}

func (h *SessionHandler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	name, data, err := readPDF(c)
	if err != nil {
		h.Metrics.Upload(variantSession, "rejected")
		return err
	}

	responder, err := h.Build(ctx, data)
	if err != nil {
		h.Metrics.Upload(variantSession, "error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing PDF: "+err.Error())
	}

	id := uuid.NewString()
	if err := h.Store.Store(ctx, id, data); err != nil {
		h.Metrics.Upload(variantSession, "error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error storing session: "+err.Error())
	}
	h.Cache.Put(id, responder)
	h.Metrics.Upload(variantSession, "ok")

	h.Logger.Info().Str("session_id", id).Str("filename", name).Int("bytes", len(data)).Msg("Session created")
	return c.JSON(http.StatusOK, map[string]string{
		"session_id": id,
		"message":    "PDF processed successfully.",
	})
}

func (h *SessionHandler) chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req sessionChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	responder, err := h.Cache.Get(ctx, req.SessionID)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		h.Metrics.Chat(variantSession, "not_found")
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	if err != nil {
		h.Metrics.Chat(variantSession, "error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error loading session: "+err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	answer, err := responder.Ask(ctx, req.Question)
	if err != nil {
		h.Metrics.Chat(variantSession, "error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Error generating answer: "+err.Error())
	}

	h.Metrics.Chat(variantSession, "ok")
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}

func (h *SessionHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"sessions": h.Store.List(c.Request().Context())})
}

func (h *SessionHandler) delete(c echo.Context) error {
	id := c.Param("id")
	if !h.Store.Delete(c.Request().Context(), id) {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	h.Cache.Remove(id)

	h.Logger.Info().Str("session_id", id).Msg("Session deleted")
	return c.JSON(http.StatusOK, map[string]string{"message": "Session " + id + " deleted successfully"})
}

func (h *SessionHandler) status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"mode":              h.Store.Mode(),
		"backend":           h.Store.Backend(),
		"active_sessions":   len(h.Store.List(c.Request().Context())),
		"cached_responders": h.Cache.Len(),
	})
}
