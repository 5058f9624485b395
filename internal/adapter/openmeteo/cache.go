package openmeteo

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedWeatherSource wraps a WeatherSource with an in-memory LRU cache keyed
// by region and date range. Cached slices are shared between callers and must
// not be modified.
type CachedWeatherSource struct {
	inner   domain.WeatherSource
	cache   *lru.Cache[string, []domain.DailyObservation]
	metrics *observability.Metrics
}

// NewCachedWeatherSource creates a cache decorator around a weather source
// holding at most maxEntries date ranges.
func NewCachedWeatherSource(inner domain.WeatherSource, maxEntries int, metrics *observability.Metrics) (*CachedWeatherSource, error) {
	cache, err := lru.New[string, []domain.DailyObservation](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create weather cache: %w", err)
	}
	return &CachedWeatherSource{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}, nil
}

func (c *CachedWeatherSource) DailyObservations(ctx context.Context, regionID string, start, end time.Time) ([]domain.DailyObservation, error) {
	key := fmt.Sprintf("%s|%s|%s", regionID, start.Format(dateLayout), end.Format(dateLayout))
	if obs, ok := c.cache.Get(key); ok {
		c.metrics.ExternalCache.WithLabelValues(metricSource, "hit").Inc()
		return obs, nil
	}
	c.metrics.ExternalCache.WithLabelValues(metricSource, "miss").Inc()

	obs, err := c.inner.DailyObservations(ctx, regionID, start, end)
	if err != nil {
		return obs, err
	}
	// Only cache non-empty results so a lagging archive can be retried.
	if len(obs) > 0 {
		c.cache.Add(key, obs)
	}
	return obs, nil
}
