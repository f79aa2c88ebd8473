package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
	"github.com/Proton-105/geogate/pkg/metrics"
)

// Geocoder wraps another geocoder with read-through caching. Cache failures
// degrade to a live call; they never surface to the caller.
type Geocoder struct {
	inner    geocode.Geocoder
	provider string
	store    Store
	ttl      time.Duration
	log      *slog.Logger
}

// Wrap decorates inner with caching. The provider name namespaces keys so
// results from different services never collide.
func Wrap(inner geocode.Geocoder, provider string, store Store, ttl time.Duration, log *slog.Logger) *Geocoder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Geocoder{
		inner:    inner,
		provider: provider,
		store:    store,
		ttl:      ttl,
		log:      log,
	}
}

// Geocode resolves query through the cache, falling back to the wrapped
// geocoder on a miss.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	return g.lookup(ctx, geocodeKey(g.provider, query), func() (*geocode.Location, error) {
		return g.inner.Geocode(ctx, query)
	})
}

// Reverse resolves coordinates through the cache, falling back to the
// wrapped geocoder on a miss.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	return g.lookup(ctx, reverseKey(g.provider, lat, lon), func() (*geocode.Location, error) {
		return g.inner.Reverse(ctx, lat, lon)
	})
}

func (g *Geocoder) lookup(ctx context.Context, key string, fetch func() (*geocode.Location, error)) (*geocode.Location, error) {
	if loc, ok, err := g.store.Get(ctx, key); err != nil {
		metrics.RecordCacheEvent("error")
		g.log.Warn("cache lookup failed, falling through", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		metrics.RecordCacheEvent("hit")
		return loc, nil
	} else {
		metrics.RecordCacheEvent("miss")
	}

	loc, err := fetch()
	if err != nil {
		return nil, err
	}

	if err := g.store.Set(ctx, key, loc, g.ttl); err != nil {
		g.log.Warn("cache store failed", slog.String("key", key), slog.Any("error", err))
	}

	return loc, nil
}
