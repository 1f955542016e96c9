package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
)

// NotificationService finds users whose streak is about to lapse and queues a reminder for them.
type NotificationService struct {
	store    storage.Store
	notifier Notifier
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewNotificationService(st storage.Store, notifier Notifier, windowHours int, logger *slog.Logger) *NotificationService {
	if windowHours <= 0 {
		windowHours = 4
	}
	return &NotificationService{
		store:    st,
		notifier: notifier,
		window:   time.Duration(windowHours) * time.Hour,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *NotificationService) SetClock(now func() time.Time) { s.now = now }

// SendStreakReminders queues a streak-risk notification for every user with an active streak,
// at least one device and fewer than window hours left. It returns the number queued.
func (s *NotificationService) SendStreakReminders(ctx context.Context) (int, error) {
	users, err := s.store.Users().ListStreakHolders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list streak holders: %w", err)
	}

	now := s.now()
	windowHours := int(s.window / time.Hour)
	queued := 0
	for _, u := range users {
		if u.Streak <= 0 || len(u.DeviceTokens) == 0 {
			continue
		}
		left := progression.StreakExpiresIn(u.LastActive, now)
		if left <= 0 || left > windowHours {
			continue
		}
		s.notifier.Notify(&notification.Notification{
			UserID: u.ID,
			Type:   notification.TypeStreakRisk,
			Title:  "Your streak is at risk",
			Body:   fmt.Sprintf("Complete a task in the next %dh to keep your %d day streak", left, u.Streak),
			Data:   map[string]any{"streak": u.Streak, "hoursLeft": left},
			Tokens: u.DeviceTokens,
		})
		queued++
	}

	if queued > 0 {
		s.logger.Info("queued streak reminders", slog.Int("count", queued))
	}
	return queued, nil
}
