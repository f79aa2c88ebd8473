package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/geogate/pkg/geocode"
)

// RedisStore is a Redis-backed Store shared across processes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a result store backed by the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get fetches a cached location if it exists.
func (s *RedisStore) Get(ctx context.Context, key string) (*geocode.Location, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, nil
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached location: %w", err)
	}

	var loc geocode.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, false, fmt.Errorf("decode cached location: %w", err)
	}

	return &loc, true, nil
}

// Set stores the location under key for the provided TTL.
func (s *RedisStore) Set(ctx context.Context, key string, loc *geocode.Location, ttl time.Duration) error {
	if s == nil || s.client == nil || loc == nil {
		return nil
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location for cache: %w", err)
	}

	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached location: %w", err)
	}

	return nil
}

// HealthCheck pings Redis so the store can participate in readiness checks.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis cache not configured")
	}

	return s.client.Ping(ctx).Err()
}
