package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StatusScheduler periodically opens and closes tournament registration
// windows whose timestamps have passed.
type StatusScheduler struct {
	sched    gocron.Scheduler
	service  TournamentService
	interval time.Duration
	logger   *slog.Logger
}

func NewStatusScheduler(service TournamentService, interval time.Duration, logger *slog.Logger) (*StatusScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &StatusScheduler{
		sched:    sched,
		service:  service,
		interval: interval,
		logger:   logger,
	}, nil
}

// Start registers the status job and starts the scheduler. Job runs use ctx.
func (s *StatusScheduler) Start(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.RunOnce(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register tournament status job: %w", err)
	}
	s.sched.Start()
	s.logger.Info("tournament status scheduler started", slog.Duration("interval", s.interval))
	return nil
}

func (s *StatusScheduler) RunOnce(ctx context.Context) {
	updated, err := s.service.AutoUpdateStatuses(ctx, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduler: tournament status update failed", slog.Any("error", err))
		return
	}
	if updated > 0 {
		s.logger.InfoContext(ctx, "scheduler: tournament statuses updated", slog.Int("count", updated))
	}
}

func (s *StatusScheduler) Shutdown() error {
	return s.sched.Shutdown()
}
