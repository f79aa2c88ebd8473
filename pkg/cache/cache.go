// Package cache provides read-through caching of geocoding results, so
// repeated lookups of the same query never hit the remote service inside the
// expiry window.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
)

// DefaultTTL keeps a cached result for 30 days, long enough for provider
// databases to change underneath it.
const DefaultTTL = 30 * 24 * time.Hour

// Store persists geocoding results by key.
type Store interface {
	// Get returns the cached location for key and whether it was present.
	Get(ctx context.Context, key string) (*geocode.Location, bool, error)

	// Set stores loc under key for the provided TTL.
	Set(ctx context.Context, key string, loc *geocode.Location, ttl time.Duration) error
}

// geocodeKey builds the cache key for a forward lookup.
func geocodeKey(provider, query string) string {
	return fmt.Sprintf("geocode:%s:%s", provider, query)
}

// reverseKey builds the cache key for a reverse lookup. Coordinates are
// rounded to 6 decimal places (about 0.1 m) so float noise does not defeat
// the cache.
func reverseKey(provider string, lat, lon float64) string {
	return fmt.Sprintf("reverse:%s:%.6f,%.6f", provider, lat, lon)
}
