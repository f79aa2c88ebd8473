// Package logger builds the application's slog pipeline.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/Proton-105/geogate/pkg/config"
)

// New builds the slog logger described by cfg: JSON or tinted console
// output, optional rotated file sink, secret masking, and Sentry fan-out for
// errors when enabled. Sentry must be initialized by the caller beforehand.
func New(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Logger.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Logger.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	level := parseLevel(cfg.Logger.Level)

	var handler slog.Handler
	if cfg.Logger.Format == "console" {
		handler = tint.NewHandler(out, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}

	handler = NewMaskingHandler(handler)

	if cfg.Sentry.Enabled {
		handler = slogmulti.Fanout(
			handler,
			slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
		)
	}

	return slog.New(handler).With(slog.String("app_env", cfg.AppEnv))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
