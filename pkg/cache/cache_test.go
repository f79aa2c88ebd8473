package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/geogate/pkg/geocode"
)

var parisLocation = &geocode.Location{
	Latitude:  48.8566,
	Longitude: 2.3522,
	Address:   "Paris, Île-de-France, France",
	Provider:  "nominatim",
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "geocode:nominatim:Paris")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "geocode:nominatim:Paris", parisLocation, time.Minute))

	loc, ok, err := store.Get(ctx, "geocode:nominatim:Paris")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, parisLocation.Address, loc.Address)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", parisLocation, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "expired entry is evicted on read")
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "stale", parisLocation, time.Millisecond))
	require.NoError(t, store.Set(ctx, "fresh", parisLocation, time.Hour))
	time.Sleep(5 * time.Millisecond)

	store.Cleanup()

	assert.Equal(t, 1, store.Len())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client)

	_, ok, err := store.Get(ctx, "geocode:nominatim:Paris")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "geocode:nominatim:Paris", parisLocation, time.Minute))

	loc, ok, err := store.Get(ctx, "geocode:nominatim:Paris")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, parisLocation.Latitude, loc.Latitude, 1e-9)
	assert.Equal(t, parisLocation.Address, loc.Address)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client)

	require.NoError(t, store.Set(ctx, "k", parisLocation, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

type countingGeocoder struct {
	calls int
}

func (c *countingGeocoder) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	c.calls++
	return parisLocation, nil
}

func (c *countingGeocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	c.calls++
	return parisLocation, nil
}

func TestCachedGeocoderReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{}
	cached := Wrap(inner, "nominatim", NewMemoryStore(), time.Minute, nil)

	for i := 0; i < 3; i++ {
		loc, err := cached.Geocode(ctx, "Paris")
		require.NoError(t, err)
		assert.Equal(t, parisLocation.Address, loc.Address)
	}

	assert.Equal(t, 1, inner.calls, "repeat lookups are served from cache")
}

func TestCachedGeocoderSeparatesOperations(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{}
	cached := Wrap(inner, "nominatim", NewMemoryStore(), time.Minute, nil)

	_, err := cached.Geocode(ctx, "Paris")
	require.NoError(t, err)

	_, err = cached.Reverse(ctx, 48.8566, 2.3522)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "forward and reverse lookups use distinct keys")
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*geocode.Location, bool, error) {
	return nil, false, assert.AnError
}

func (failingStore) Set(context.Context, string, *geocode.Location, time.Duration) error {
	return assert.AnError
}

func TestCachedGeocoderSurvivesStoreFailure(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{}
	cached := Wrap(inner, "nominatim", failingStore{}, time.Minute, nil)

	loc, err := cached.Geocode(ctx, "Paris")

	require.NoError(t, err, "cache failures must not fail the lookup")
	assert.Equal(t, parisLocation.Address, loc.Address)
	assert.Equal(t, 1, inner.calls)
}
