package geocode

import (
	"context"
	"sync"

	"github.com/sanchar-ai/hangout-planner/internal/models"
)

// Cache maps a raw location string to its resolved coordinates. Entries live
// for the process lifetime: the key is the exact user input (case-sensitive)
// and nothing is ever evicted. Coordinates for a fixed query do not go
// stale on any timescale this product cares about.
type Cache interface {
	Get(ctx context.Context, key string) (models.Coordinates, bool, error)
	Set(ctx context.Context, key string, value models.Coordinates) error
}

// InMemoryCache implements Cache with a mutex-guarded map. The planning
// flow is sequential per session, but sessions run concurrently in the
// service, so the map is guarded.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]models.Coordinates
}

// NewInMemoryCache creates an empty in-memory geocode cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{data: make(map[string]models.Coordinates)}
}

// Get returns the cached coordinates for key, if present.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.Coordinates, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coords, ok := c.data[key]
	return coords, ok, nil
}

// Set stores coordinates for key. Overwrites silently; the geocoder is
// deterministic for a fixed query so overwrites are idempotent.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
