package sessions

import (
	"context"
	"slices"

	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/ternarybob/arbor"
)

// DurableStore writes through to a Backend and keeps a memory copy only for
// calls the backend could not serve.
type DurableStore struct {
	backend Backend
	memory  *MemoryStore
	logger  arbor.ILogger
	metrics *metrics.Metrics
}

// NewDurableStore wraps a backend that has already answered a ping
func NewDurableStore(backend Backend, logger arbor.ILogger, m *metrics.Metrics) *DurableStore {
	return &DurableStore{
		backend: backend,
		memory:  NewMemoryStore(),
		logger:  logger,
		metrics: m,
	}
}

func (s *DurableStore) Store(ctx context.Context, id string, data []byte) error {
	if err := s.backend.Put(ctx, id, data); err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to store session, keeping it in memory")
		s.metrics.FallbackWrite()
		return s.memory.Store(ctx, id, data)
	}
	s.logger.Debug().Str("session_id", id).Str("backend", s.backend.Name()).Msg("Stored session")
	return nil
}

// Load falls back to memory when the backend errors or does not have id, so
// sessions written during an outage stay readable after it recovers.
func (s *DurableStore) Load(ctx context.Context, id string) ([]byte, error) {
	data, found, err := s.backend.Get(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to load session, trying memory")
		return s.memory.Load(ctx, id)
	}
	if !found {
		return s.memory.Load(ctx, id)
	}
	return data, nil
}

func (s *DurableStore) Exists(ctx context.Context, id string) bool {
	_, found, err := s.backend.Get(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to check session, trying memory")
		return s.memory.Exists(ctx, id)
	}
	return found || s.memory.Exists(ctx, id)
}

func (s *DurableStore) Delete(ctx context.Context, id string) bool {
	deleted, err := s.backend.Remove(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to delete session, trying memory")
		return s.memory.Delete(ctx, id)
	}
	inMemory := s.memory.Delete(ctx, id)
	return deleted || inMemory
}

// List merges backend ids with ids that only made it into memory.
func (s *DurableStore) List(ctx context.Context) []string {
	ids := s.memory.List(ctx)
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list sessions, showing memory only")
		return ids
	}
	for _, k := range keys {
		if !slices.Contains(ids, k) {
			ids = append(ids, k)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *DurableStore) Mode() Mode      { return ModeConnected }
func (s *DurableStore) Backend() string { return s.backend.Name() }

func (s *DurableStore) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}
