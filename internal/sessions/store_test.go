package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dream-ai/docuchat/config"
	"github.com/dream-ai/docuchat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a map that can be switched into failing mode
type fakeBackend struct {
	mu     sync.Mutex
	data   map[string][]byte
	broken bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

var errBackendDown = errors.New("backend down")

func (f *fakeBackend) setBroken(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = b
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errBackendDown
	}
	return nil
}

func (f *fakeBackend) Put(_ context.Context, id string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errBackendDown
	}
	f.data[id] = data
	return nil
}

func (f *fakeBackend) Get(_ context.Context, id string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return nil, false, errBackendDown
	}
	d, ok := f.data[id]
	return d, ok, nil
}

func (f *fakeBackend) Remove(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return false, errBackendDown
	}
	_, ok := f.data[id]
	delete(f.data, id)
	return ok, nil
}

func (f *fakeBackend) Keys(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return nil, errBackendDown
	}
	var ids []string
	for id := range f.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeBackend) Close(context.Context) error { return nil }

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Store(ctx, "b", []byte("two")))
	require.NoError(t, s.Store(ctx, "a", []byte("one")))

	data, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	assert.True(t, s.Exists(ctx, "b"))
	assert.Equal(t, []string{"a", "b"}, s.List(ctx))
	assert.Equal(t, ModeFallback, s.Mode())

	assert.True(t, s.Delete(ctx, "a"))
	assert.False(t, s.Delete(ctx, "a"))
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, s.Exists(ctx, "a"))
}

func TestDurableStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	s := NewDurableStore(backend, logging.New("error"), nil)

	require.NoError(t, s.Store(ctx, "s1", []byte("pdf")))
	assert.Equal(t, []byte("pdf"), backend.data["s1"])

	data, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)
	assert.True(t, s.Exists(ctx, "s1"))
	assert.Equal(t, ModeConnected, s.Mode())
	assert.Equal(t, "fake", s.Backend())

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.True(t, s.Delete(ctx, "s1"))
	assert.False(t, s.Exists(ctx, "s1"))
	assert.False(t, s.Delete(ctx, "s1"))
}

func TestDurableStore_FallsBackOnBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	s := NewDurableStore(backend, logging.New("error"), nil)

	backend.setBroken(true)
	require.NoError(t, s.Store(ctx, "s1", []byte("pdf")))

	data, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)
	assert.True(t, s.Exists(ctx, "s1"))
	assert.Equal(t, []string{"s1"}, s.List(ctx))

	assert.True(t, s.Delete(ctx, "s1"))
	_, err = s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDurableStore_DeletePurgesMemoryCopy(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	s := NewDurableStore(backend, logging.New("error"), nil)

	// one write lands in memory while the backend is down, a later one in the backend
	backend.setBroken(true)
	require.NoError(t, s.Store(ctx, "s1", []byte("old")))
	backend.setBroken(false)
	require.NoError(t, s.Store(ctx, "s1", []byte("new")))
	require.NoError(t, s.Store(ctx, "s2", []byte("other")))

	assert.Equal(t, []string{"s1", "s2"}, s.List(ctx))
	assert.True(t, s.Delete(ctx, "s1"))

	backend.setBroken(true)
	_, err := s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDurableStore_OutageWritesSurviveRecovery(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	s := NewDurableStore(backend, logging.New("error"), nil)

	backend.setBroken(true)
	require.NoError(t, s.Store(ctx, "s1", []byte("pdf")))
	backend.setBroken(false)

	assert.Equal(t, []string{"s1"}, s.List(ctx))
	assert.True(t, s.Exists(ctx, "s1"))
	data, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)

	assert.True(t, s.Delete(ctx, "s1"))
	assert.False(t, s.Exists(ctx, "s1"))
	assert.Empty(t, s.List(ctx))
	_, err = s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, s.Delete(ctx, "s1"))
}

func TestOpen_MemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Sessions.Backend = "memory"

	s, err := Open(context.Background(), cfg, logging.New("error"), nil)
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, s.Mode())
	assert.Equal(t, "memory", s.Backend())
}

func TestOpen_UnreachableRedisFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.Sessions.Backend = "redis"
	cfg.Sessions.Redis.Addr = "127.0.0.1:1"
	cfg.Sessions.ProbeTimeout = 500 * time.Millisecond

	s, err := Open(context.Background(), cfg, logging.New("error"), nil)
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, s.Mode())

	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "s1", []byte("pdf")))
	data, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Sessions.Backend = "etcd"

	_, err := Open(context.Background(), cfg, logging.New("error"), nil)
	assert.ErrorIs(t, err, errUnknownBackend)
}
