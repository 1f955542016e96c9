package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const reminderTimeout = 5 * time.Minute

// StreakReminder is implemented by services.NotificationService.
type StreakReminder interface {
	SendStreakReminders(ctx context.Context) (int, error)
}

// Scheduler runs the periodic background jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	reminders StreakReminder
	logger    *slog.Logger
}

func New(reminders StreakReminder, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		reminders: reminders,
		logger:    logger,
	}
}

// Start schedules the streak-risk reminder on cronExpr (standard five field syntax, evaluated in
// the scheduler's location) and starts the scheduler without blocking.
func (s *Scheduler) Start(cronExpr string) error {
	if _, err := s.scheduler.Cron(cronExpr).Tag("streak-reminders").Do(s.runReminders); err != nil {
		return fmt.Errorf("failed to schedule streak reminders %q: %w", cronExpr, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", slog.String("reminder_cron", cronExpr))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.reminders.SendStreakReminders(ctx)
	if err != nil {
		s.logger.Error("streak reminder job failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("streak reminder job finished",
		slog.Int("queued", n),
		slog.Duration("took", time.Since(start)),
	)
}
