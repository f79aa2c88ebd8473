// Package geocoder assembles the configured provider, the result cache and
// the rate-limited schedulers into one client the rest of the application
// talks to.
package geocoder

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/geogate/pkg/cache"
	"github.com/Proton-105/geogate/pkg/config"
	"github.com/Proton-105/geogate/pkg/geocode"
	"github.com/Proton-105/geogate/pkg/metrics"
	"github.com/Proton-105/geogate/pkg/providers"
	"github.com/Proton-105/geogate/pkg/ratelimit"
)

// Coordinate is a reverse-lookup input.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Outcome is the result of one lookup, including retry and swallow detail.
type Outcome = ratelimit.Outcome[*geocode.Location]

// Client is the unified geocoding entry point. Forward and reverse lookups
// are paced independently of each other.
type Client struct {
	provider string
	forward  *ratelimit.Scheduler[string, *geocode.Location]
	reverse  *ratelimit.Scheduler[Coordinate, *geocode.Location]
	log      *slog.Logger
}

// New builds the client from cfg. A nil store disables caching.
func New(cfg config.Config, store cache.Store, log *slog.Logger) (*Client, error) {
	base, err := providers.New(cfg.Provider.Name, providers.Options{
		UserAgent: cfg.Provider.UserAgent,
		APIKey:    cfg.Provider.APIKey,
		Domain:    cfg.Provider.Domain,
		Region:    cfg.Provider.Region,
		Timeout:   cfg.Provider.Timeout,
	})
	if err != nil {
		return nil, err
	}

	var coder geocode.Geocoder = base
	if store != nil {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = cache.DefaultTTL
		}
		coder = cache.Wrap(base, cfg.Provider.Name, store, ttl, log)
	}

	return newClient(cfg, coder, log), nil
}

// newClient wires the schedulers around an already-built geocoder. Split out
// so tests can substitute the remote service.
func newClient(cfg config.Config, coder geocode.Geocoder, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	minDelay := cfg.RateLimit.MinDelay
	if minDelay == 0 {
		minDelay = providers.DefaultMinDelay(cfg.Provider.Name)
	}

	c := &Client{provider: cfg.Provider.Name, log: log}

	// Each direction gets its own breaker so a broken forward endpoint
	// does not take down reverse lookups.
	breakerCfg := ratelimit.BreakerConfig{IsFailure: breakerFailure}
	forward := ratelimit.NewBreaker(
		instrument(c.provider, "geocode", coder.Geocode),
		breakerCfg,
	)
	reverse := ratelimit.NewBreaker(
		instrument(c.provider, "reverse", func(ctx context.Context, coord Coordinate) (*geocode.Location, error) {
			return coder.Reverse(ctx, coord.Lat, coord.Lon)
		}),
		breakerCfg,
	)

	c.forward = ratelimit.New(forward.Call, c.schedulerConfig(cfg.RateLimit, minDelay), log)
	c.reverse = ratelimit.New(reverse.Call, c.schedulerConfig(cfg.RateLimit, minDelay), log)

	return c
}

// Provider reports the configured service name.
func (c *Client) Provider() string {
	return c.provider
}

// Geocode resolves a free-form query through the forward scheduler.
// Swallowed failures surface as a nil location with a nil error.
func (c *Client) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	return c.finish(c.forward.Invoke(ctx, query))
}

// Reverse resolves coordinates to an address through the reverse scheduler.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	return c.finish(c.reverse.Invoke(ctx, Coordinate{Lat: lat, Lon: lon}))
}

// BatchProgress reports completion of one batch item.
type BatchProgress func(index, total int, out Outcome)

// GeocodeBatch resolves queries in order through the forward scheduler. It
// stops at the first unswallowed failure and returns the outcomes produced so
// far together with that failure's error.
func (c *Client) GeocodeBatch(ctx context.Context, queries []string, progress BatchProgress) ([]Outcome, error) {
	bulk := ratelimit.NewBulk(c.forward)
	total := len(queries)

	bulk.Progress = func(index int, out Outcome) {
		metrics.RecordBatchItem(batchStatus(out))
		if progress != nil {
			progress(index, total, out)
		}
	}

	return bulk.Collect(ctx, queries)
}

func (c *Client) schedulerConfig(rl config.RateLimitConfig, minDelay time.Duration) ratelimit.Config[*geocode.Location] {
	return ratelimit.Config[*geocode.Location]{
		MinDelay:      minDelay,
		MaxRetries:    rl.MaxRetries,
		ErrorWait:     rl.ErrorWait,
		SwallowErrors: rl.SwallowErrors,
		OnRetry: func(err error, attempt int) {
			metrics.RecordRetry(c.provider, geocode.KindOf(err).String())
		},
	}
}

func (c *Client) finish(out Outcome) (*geocode.Location, error) {
	if out.Swallowed {
		metrics.RecordSwallowed(c.provider, geocode.KindOf(out.Err).String())
		c.log.Debug("lookup failure swallowed",
			slog.String("provider", c.provider),
			slog.Any("error", out.Err),
		)
		return out.Value, nil
	}

	return out.Value, out.Err
}

// instrument wraps a lookup with request metrics.
func instrument[A any](provider, operation string, call ratelimit.Func[A, *geocode.Location]) ratelimit.Func[A, *geocode.Location] {
	return func(ctx context.Context, args A) (*geocode.Location, error) {
		start := time.Now()
		loc, err := call(ctx, args)

		status := "ok"
		if err != nil {
			status = geocode.KindOf(err).String()
		}
		metrics.RecordRequest(provider, operation, status, time.Since(start))

		return loc, err
	}
}

// breakerFailure keeps per-query outcomes from tripping the breaker. A miss
// or a malformed query means the provider answered; only service-level
// failures count.
func breakerFailure(err error) bool {
	switch geocode.KindOf(err) {
	case geocode.KindNotFound, geocode.KindQuery:
		return false
	default:
		return err != nil
	}
}

func batchStatus(out Outcome) string {
	switch {
	case out.Failed():
		return "failed"
	case out.Swallowed:
		return "swallowed"
	default:
		return "ok"
	}
}
