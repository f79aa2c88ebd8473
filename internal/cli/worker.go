package cli

import (
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/internal/jobs"
	"github.com/Proton-105/geogate/internal/jobs/handlers"
	"github.com/Proton-105/geogate/internal/repository"
	"github.com/Proton-105/geogate/pkg/cache"
)

func asynqRedisOpt(a *app) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background job worker",
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

		var results repository.ResultRepository
		if app.cfg.Database.Configured() {
			db, err := app.openDB(ctx)
			if err != nil {
				return err
			}
			results = repository.NewResultRepository(db, app.log)
		}

		worker := jobs.NewWorker(asynqRedisOpt(app), nil, app.log)
		worker.RegisterHandler(jobs.TaskTypeGeocodeBatch, handlers.NewGeocodeBatchHandler(client, results, app.log))
		worker.RegisterHandler(jobs.TaskTypeCleanupResults, handlers.NewCleanupResultsHandler(results, app.log))

		maxAge := app.cfg.Cache.TTL
		if maxAge <= 0 {
			maxAge = cache.DefaultTTL
		}

		scheduler := jobs.NewScheduler(asynqRedisOpt(app), maxAge, app.log)
		if err := scheduler.RegisterTasks(); err != nil {
			return err
		}
		scheduler.Run()

		errCh := make(chan error, 1)
		go func() { errCh <- worker.Run() }()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			scheduler.Shutdown()
			return err
		}

		scheduler.Shutdown()
		worker.Shutdown()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
