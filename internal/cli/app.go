package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sentry "github.com/getsentry/sentry-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Proton-105/geogate/internal/database"
	"github.com/Proton-105/geogate/internal/geocoder"
	"github.com/Proton-105/geogate/internal/lifecycle"
	"github.com/Proton-105/geogate/pkg/cache"
	"github.com/Proton-105/geogate/pkg/config"
	"github.com/Proton-105/geogate/pkg/logger"
	"github.com/Proton-105/geogate/pkg/redis"
)

// app holds the lazily-connected dependencies a command may need.
type app struct {
	cfg      *config.Config
	viper    *viper.Viper
	log      *slog.Logger
	shutdown *lifecycle.Shutdown

	redisClient *goredis.Client
	db          *sql.DB
}

// newApp loads configuration and sets up logging and error reporting.
func newApp() (*app, error) {
	cfg, v, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return nil, fmt.Errorf("initialize sentry: %w", err)
		}
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	a := &app{
		cfg:      cfg,
		viper:    v,
		log:      log,
		shutdown: lifecycle.NewShutdown(log),
	}

	if cfg.Sentry.Enabled {
		a.shutdown.Register("sentry", func(ctx context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		})
	}

	return a, nil
}

// connectRedis returns the shared Redis client, connecting on first use.
func (a *app) connectRedis(ctx context.Context) (*goredis.Client, error) {
	if a.redisClient != nil {
		return a.redisClient, nil
	}

	client, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}

	a.redisClient = client
	a.shutdown.Register("redis", func(ctx context.Context) error {
		return client.Close()
	})

	return client, nil
}

// openDB returns the result store database, connecting on first use.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	if !a.cfg.Database.Configured() {
		return nil, fmt.Errorf("database is not configured")
	}

	db, err := database.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}

	a.db = db
	a.shutdown.Register("database", func(ctx context.Context) error {
		return db.Close()
	})

	return db, nil
}

// buildStore returns the configured cache backend, or nil when caching is off.
func (a *app) buildStore(ctx context.Context) (cache.Store, error) {
	if !a.cfg.Cache.Enabled {
		return nil, nil
	}

	switch a.cfg.Cache.Backend {
	case "redis":
		client, err := a.connectRedis(ctx)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(client), nil
	case "memory":
		return cache.NewMemoryStore(), nil
	default:
		return nil, nil
	}
}

// buildClient assembles the paced geocoding client.
func (a *app) buildClient(ctx context.Context) (*geocoder.Client, error) {
	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	return geocoder.New(*a.cfg, store, a.log)
}

// close runs the registered shutdown hooks.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.shutdown.Execute(ctx); err != nil {
		a.log.Warn("shutdown finished with errors", slog.Any("error", err))
	}
}
