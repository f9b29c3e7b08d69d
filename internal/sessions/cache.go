package sessions

import (
	"context"
	"sync"

	"github.com/dream-ai/docuchat/internal/metrics"
)

// BuildFunc turns stored session bytes into an Asker
type BuildFunc func(ctx context.Context, data []byte) (Asker, error)

// Cache maps session ids to built responders for the life of the process.
// Entries are never evicted except by Remove. Concurrent misses for the same
// id may each build; the last one stored wins.
type Cache struct {
	store   Store
	build   BuildFunc
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]Asker
}

// NewCache creates an empty cache over store
func NewCache(store Store, build BuildFunc, m *metrics.Metrics) *Cache {
	return &Cache{
		store:   store,
		build:   build,
		metrics: m,
		entries: make(map[string]Asker),
	}
}

// Get returns the cached responder or rebuilds it from the store.
// ErrSessionNotFound is returned for unknown ids.
func (c *Cache) Get(ctx context.Context, id string) (Asker, error) {
	c.mu.Lock()
	a, ok := c.entries[id]
	c.mu.Unlock()
	if ok {
		c.metrics.CacheHit()
		return a, nil
	}
	c.metrics.CacheMiss()

	data, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	a, err = c.build(ctx, data)
	if err != nil {
		return nil, err
	}

	c.Put(id, a)
	return a, nil
}

func (c *Cache) Put(id string, a Asker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = a
}

func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
