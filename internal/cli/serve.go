package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/internal/clientlimit"
	"github.com/Proton-105/geogate/internal/health"
	"github.com/Proton-105/geogate/internal/server"
	"github.com/Proton-105/geogate/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()

		client, err := app.buildClient(ctx)
		if err != nil {
			return err
		}

		checker := health.NewChecker(app.log)

		var limiter clientlimit.Limiter
		if app.redisClient != nil {
			limiter = clientlimit.NewRedisLimiter(app.redisClient, app.log)
			checker.AddCheck("redis", health.NewRedisChecker(app.redisClient))

			cleaner := clientlimit.NewCleaner(app.redisClient, app.log, 10*time.Minute)
			go cleaner.Run(ctx)
		} else {
			mem := clientlimit.NewMemoryLimiter()
			limiter = mem

			go func() {
				ticker := time.NewTicker(10 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						mem.Cleanup(time.Hour)
					}
				}
			}()
		}

		if app.cfg.Database.Configured() {
			db, err := app.openDB(ctx)
			if err != nil {
				return err
			}
			checker.AddCheck("database", health.NewDBChecker(db))
		}

		config.Watch(app.viper, app.log, func(cfg *config.Config) {
			app.log.Info("configuration changed, restart to apply",
				slog.String("provider", cfg.Provider.Name))
		})

		srv := server.New(client, checker, app.log)
		return srv.Run(ctx, app.cfg.Server, limiter)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
