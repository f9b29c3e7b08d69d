// Package sessions keeps uploaded PDFs per session and answers questions
// against an index built from each one.
package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/dream-ai/docuchat/config"
	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/ternarybob/arbor"
)

// ErrSessionNotFound is returned when a session id is unknown to the store.
var ErrSessionNotFound = errors.New("session not found")

// Mode reports whether the durable backend is in use.
type Mode string

const (
	ModeConnected Mode = "connected"
	ModeFallback  Mode = "fallback"
)

// Store persists raw session bytes. Writes never fail: when the durable
// backend errors the bytes are kept in process memory instead.
type Store interface {
	Store(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Exists(ctx context.Context, id string) bool
	Delete(ctx context.Context, id string) bool
	List(ctx context.Context) []string
	Mode() Mode
	Backend() string
	Close(ctx context.Context) error
}

// Backend is a durable key/value home for session bytes.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	Put(ctx context.Context, id string, data []byte) error
	// Get reports found=false without error when the id is absent.
	Get(ctx context.Context, id string) (data []byte, found bool, err error)
	Remove(ctx context.Context, id string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

// Open connects the configured backend and probes it once. If the probe
// fails the process runs on a memory-only store until restart.
func Open(ctx context.Context, cfg *config.Config, logger arbor.ILogger, m *metrics.Metrics) (Store, error) {
	if cfg.Sessions.Backend == "memory" {
		logger.Info().Msg("Session store running in memory")
		return NewMemoryStore(), nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, cfg.Sessions.ProbeTimeout)
	defer cancel()

	backend, err := dial(probeCtx, cfg)
	if err == nil {
		if err = backend.Ping(probeCtx); err != nil {
			_ = backend.Close(ctx)
		}
	}
	if err != nil {
		if errors.Is(err, errUnknownBackend) {
			return nil, err
		}
		logger.Warn().Err(err).Str("backend", cfg.Sessions.Backend).Msg("Session backend unreachable, using in-memory fallback")
		return NewMemoryStore(), nil
	}

	logger.Info().Str("backend", backend.Name()).Msg("Session store connected")
	return NewDurableStore(backend, logger, m), nil
}

var errUnknownBackend = errors.New("unknown session backend")

func dial(ctx context.Context, cfg *config.Config) (Backend, error) {
	s := cfg.Sessions
	switch s.Backend {
	case "postgres":
		b, err := DialPostgres(ctx, cfg.Database.ConnectionString)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "mongo":
		b, err := DialMongo(ctx, s.Mongo.URI, s.Mongo.Database, s.Mongo.Collection, s.ProbeTimeout)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		return DialRedis(s.Redis.Addr, s.Redis.Password, s.Redis.DB, s.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, s.Backend)
	}
}
