package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dream-ai/docuchat/config"
	"github.com/dream-ai/docuchat/internal/db"
	"github.com/dream-ai/docuchat/internal/documents"
	"github.com/dream-ai/docuchat/internal/embeddings"
	"github.com/dream-ai/docuchat/internal/llm"
	"github.com/dream-ai/docuchat/internal/logging"
	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/dream-ai/docuchat/internal/rag"
	"github.com/dream-ai/docuchat/internal/server"
	"github.com/dream-ai/docuchat/internal/sessions"
	"github.com/ternarybob/arbor"
)

func runServe(parent context.Context, cfg *config.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.Logging.Level)
	if cfg.Processing.ScoreThreshold != 0 {
		logger.Warn().Msgf("processing.score_threshold=%v is set but retrieval does not filter by score", cfg.Processing.ScoreThreshold)
	}

	m := metrics.New()

	embedder, err := embeddings.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	model, err := llm.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create chat model: %w", err)
	}
	splitter := documents.NewSplitter(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)

	var routes server.Routes
	switch cfg.Server.Variant {
	case config.VariantSession:
		if migrate && cfg.Sessions.Backend == "postgres" {
			if err := db.Migrate(cfg.Database.ConnectionString, "up", 0); err != nil {
				logger.Warn().Err(err).Msg("Migrations failed, the session store may fall back to memory")
			}
		}

		store, err := sessions.Open(ctx, cfg, logger, m)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		routes = newSessionRoutes(store, sessions.Deps{
			Embedder: embedder,
			Model:    model,
			Splitter: splitter,
			TopK:     cfg.Processing.TopK,
			Logger:   logger,
			Metrics:  m,
		}, logger, m)

	case config.VariantCorpus:
		if migrate {
			if err := db.Migrate(cfg.Database.ConnectionString, "up", 0); err != nil {
				return err
			}
		}

		conn, err := db.New(ctx, cfg.Database.ConnectionString)
		if err != nil {
			return err
		}
		defer conn.Close()

		routes = &server.CorpusHandler{
			Documents: conn,
			Processor: documents.NewProcessor(conn, embedder, splitter, logger, m),
			Responder: rag.NewResponder(rag.NewRetriever(conn, embedder, cfg.Processing.TopK), model, logger),
			Logger:    logger,
			Metrics:   m,
		}

	default:
		return fmt.Errorf("unknown server variant: %q", cfg.Server.Variant)
	}

	e := server.New(logger, m, routes)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Server.Address).Str("variant", cfg.Server.Variant).Msg("HTTP server listening")
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newSessionRoutes(store sessions.Store, deps sessions.Deps, logger arbor.ILogger, m *metrics.Metrics) *server.SessionHandler {
	build := func(ctx context.Context, data []byte) (sessions.Asker, error) {
		r, err := sessions.NewResponder(ctx, data, deps)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	return &server.SessionHandler{
		Store:   store,
		Cache:   sessions.NewCache(store, build, m),
		Build:   build,
		Logger:  logger,
		Metrics: m,
	}
}
