package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from a YAML file and environment variables,
// validates it, and returns the resulting Config. An empty path falls back
// to ./configs/<APP_ENV>.yaml. Environment variables override file values
// with dots replaced by underscores (e.g. PROVIDER_API_KEY).
func Load(path string) (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// missing env files are fine
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	explicit := path != ""
	if !explicit {
		path = fmt.Sprintf("./configs/%s.yaml", env)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// The default file is optional; defaults plus environment
		// variables are a complete configuration. An explicitly named
		// file must exist.
		if explicit || !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "nominatim")
	v.SetDefault("ratelimit.max_retries", 2)
	v.SetDefault("ratelimit.error_wait", "5s")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// Watch re-reads the config file on change and reports the fresh Config to
// onChange. Invalid revisions are logged and skipped so a half-saved file
// never takes down a running process.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	if v == nil || onChange == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			log.Warn("config reload failed", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		validate := validator.New(validator.WithRequiredStructEnabled())
		if err := validate.Struct(cfg); err != nil {
			log.Warn("config reload rejected", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		log.Info("config reloaded", slog.String("file", e.Name))
		onChange(&cfg)
	})

	v.WatchConfig()
}
