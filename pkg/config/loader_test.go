package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: nominatim
  user_agent: geogate-tests
ratelimit:
  min_delay: 1s
  max_retries: 3
  error_wait: 250ms
  swallow_errors: true
cache:
  enabled: true
  backend: memory
  ttl: 720h
logger:
  level: debug
  format: console
`)

	cfg, v, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "nominatim", cfg.Provider.Name)
	assert.Equal(t, "geogate-tests", cfg.Provider.UserAgent)
	assert.Equal(t, time.Second, cfg.RateLimit.MinDelay)
	assert.Equal(t, 3, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.ErrorWait)
	assert.True(t, cfg.RateLimit.SwallowErrors)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 720*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: nominatim
  user_agent: geogate-tests
`)

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.ErrorWait)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoadCacheCanBeDisabled(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: nominatim
  user_agent: geogate-tests
cache:
  enabled: false
`)

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: teleporter
`)

	_, _, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: nominatim
logger:
  level: shouting
`)

	_, _, err := Load(path)

	require.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "geogate",
		Password: "secret",
		Name:     "geogate",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=geogate password=secret dbname=geogate sslmode=disable",
		db.DSN(),
	)
	assert.True(t, db.Configured())
	assert.False(t, DatabaseConfig{}.Configured())
}
