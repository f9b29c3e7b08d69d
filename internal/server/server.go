// Package server exposes the upload and chat API over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ternarybob/arbor"
)

const maxUploadSize = "64M"

// Routes mounts one variant's handlers under /api
type Routes interface {
	Register(g *echo.Group)
}

// New builds the echo instance shared by both variants
func New(logger arbor.ILogger, m *metrics.Metrics, routes Routes) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.HTTPErrorHandler = errorHandler(logger)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	api := e.Group("/api", middleware.BodyLimit(maxUploadSize))
	routes.Register(api)
	return e
}

// errorHandler renders every failure as {"detail": "..."}
func errorHandler(logger arbor.ILogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}

		req := c.Request()
		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Int("status", code).Msg("Request failed")
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"detail": msg})
		}
	}
}

func requestLogger(logger arbor.ILogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			logger.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("HTTP request")
			return nil
		}
	}
}
