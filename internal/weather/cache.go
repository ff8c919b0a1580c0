package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skylog-app/skylog/internal/metrics"
	"github.com/skylog-app/skylog/internal/model"
)

// Cache wraps a Provider with a TTL cache keyed by coordinates rounded to two
// decimals (roughly one kilometre), so nearby lookups within the window share
// one upstream call.
type Cache struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	weather model.ExternalWeather
	expires time.Time
}

func NewCache(inner Provider, ttl time.Duration) *Cache {
	return &Cache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// WithClock overrides the cache clock. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func (c *Cache) Current(ctx context.Context, lat, lon float64) (*model.ExternalWeather, error) {
	key := cacheKey(lat, lon)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		metrics.WeatherCacheHits.WithLabelValues("hit").Inc()
		w := e.weather
		return &w, nil
	}
	c.mu.Unlock()
	metrics.WeatherCacheHits.WithLabelValues("miss").Inc()

	w, err := c.inner.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{weather: *w, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return w, nil
}
