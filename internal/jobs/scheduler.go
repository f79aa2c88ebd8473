package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Scheduler registers recurring maintenance tasks.
type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
	resultMaxAge   time.Duration
}

// NewScheduler builds a Scheduler that prunes stored results older than maxAge.
func NewScheduler(redisOpt asynq.RedisConnOpt, maxAge time.Duration, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		log:            log,
		resultMaxAge:   maxAge,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewCleanupResultsTask(s.resultMaxAge)
	if err != nil {
		return err
	}

	// Daily, during the quiet hours.
	if _, err := s.asynqScheduler.Register("0 4 * * *", task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered result cleanup task",
		slog.Duration("max_age", s.resultMaxAge))

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
