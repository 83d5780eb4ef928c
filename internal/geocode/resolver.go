package geocode

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/observability"
)

// CachedResolver wraps a Client with read-then-write caching. The cache key
// is the raw input string, so " Indiranagar" and "indiranagar" are distinct
// entries; normalization would change what the user actually typed.
type CachedResolver struct {
	client Client
	cache  Cache
	logger *zap.Logger
}

// NewCachedResolver creates a CachedResolver over client and cache.
func NewCachedResolver(client Client, cache Cache, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{client: client, cache: cache, logger: logger}
}

// Resolve returns coordinates for place, consulting the cache first. A cache
// error falls through to the upstream lookup; a cache-write error is logged
// and swallowed because the resolved coordinates are already in hand.
func (r *CachedResolver) Resolve(ctx context.Context, place string) (models.Coordinates, error) {
	if place == "" {
		return models.Coordinates{}, fmt.Errorf("%w: empty location", ErrLocationNotFound)
	}

	cached, ok, err := r.cache.Get(ctx, place)
	if err != nil {
		r.logger.Warn("geocode cache get failed", zap.String("place", place), zap.Error(err))
	} else if ok {
		observability.GeocodeCacheHitsTotal.Inc()
		r.logger.Debug("geocode cache hit", zap.String("place", place))
		return cached, nil
	}

	coords, err := r.client.Resolve(ctx, place)
	if err != nil {
		return models.Coordinates{}, err
	}

	if err := r.cache.Set(ctx, place, coords); err != nil {
		r.logger.Warn("geocode cache set failed", zap.String("place", place), zap.Error(err))
	}
	return coords, nil
}
