package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

// LeaderboardCache is implemented by internal/cache.
type LeaderboardCache interface {
	SetScore(ctx context.Context, userID, username string, xp int) error
}

// ProgressPublisher receives committed progress changes, e.g. for live websocket updates.
type ProgressPublisher interface {
	Publish(userID string, event *ProgressEvent)
}

// Notifier queues a push notification. Implementations must not block.
type Notifier interface {
	Notify(n *notification.Notification)
}

// Activity describes one progress mutation. XP is the amount after the source policy was applied.
type Activity struct {
	Source               progression.Source
	XP                   int
	FitnessPlanCompleted bool
}

type ProgressResult struct {
	XP            int                        `json:"xp"`
	Level         int                        `json:"level"`
	Streak        int                        `json:"streak"`
	LongestStreak int                        `json:"longestStreak"`
	XPAwarded     int                        `json:"xpAwarded"`
	LevelUp       bool                       `json:"levelUp"`
	Unlocked      []*achievement.Achievement `json:"unlocked"`

	User *user.User `json:"-"`
}

type ProgressEvent struct {
	Type      string   `json:"type"`
	Source    string   `json:"source"`
	XP        int      `json:"xp"`
	Level     int      `json:"level"`
	Streak    int      `json:"streak"`
	XPAwarded int      `json:"xpAwarded"`
	LevelUp   bool     `json:"levelUp"`
	Unlocked  []string `json:"unlocked,omitempty"`
}

// ProgressionService is the single write path for xp, level, streak and achievements.
type ProgressionService struct {
	store   storage.Store
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics

	board     LeaderboardCache
	publisher ProgressPublisher
	notifier  Notifier
}

func NewProgressionService(st storage.Store, loc *time.Location, logger *slog.Logger) *ProgressionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressionService{store: st, loc: loc, now: time.Now, logger: logger}
}

func (s *ProgressionService) SetClock(now func() time.Time) { s.now = now }

func (s *ProgressionService) SetMetrics(m *Metrics) { s.metrics = m }

func (s *ProgressionService) SetLeaderboardCache(c LeaderboardCache) { s.board = c }

func (s *ProgressionService) SetPublisher(p ProgressPublisher) { s.publisher = p }

func (s *ProgressionService) SetNotifier(n Notifier) { s.notifier = n }

// Now is the service clock in the configured time zone.
func (s *ProgressionService) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *ProgressionService) Location() *time.Location {
	return s.loc
}

func (s *ProgressionService) signal(ctx context.Context, userID string, now time.Time) (progression.Signal, error) {
	var sig progression.Signal

	dayStart := task.StartOfDay(now, s.loc)
	n, err := s.store.Tasks().CountCompletedBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return sig, err
	}
	sig.TasksCompletedToday = n

	if sig.HabitTitlesMastered, err = s.store.Tasks().CountMasteredHabitTitles(ctx, userID, progression.HabitMasteryCompletions); err != nil {
		return sig, err
	}
	if sig.GamesPlayed, err = s.store.GameScores().CountByUser(ctx, userID); err != nil {
		return sig, err
	}
	return sig, nil
}

// Apply runs one activity through the ledger, the streak tracker and the achievement evaluator
// inside a single atomic user update.
func (s *ProgressionService) Apply(ctx context.Context, userID string, act Activity) (*ProgressResult, error) {
	if act.XP < 0 {
		return nil, apperror.Validation("XP amount must be a positive integer")
	}
	now := s.Now()

	sig, err := s.signal(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement signal: %w", err)
	}
	templates, err := s.store.Achievements().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	var (
		unlocked    []*achievement.Achievement
		xpAwarded   int
		achievedXP  int
		levelBefore int
	)
	updated, err := s.store.Users().UpdateProgress(ctx, userID, func(u *user.User) error {
		// fn may run more than once on optimistic backends, so start from scratch every time.
		unlocked, xpAwarded, achievedXP = nil, 0, 0
		levelBefore = u.Level

		if act.XP > 0 {
			res := progression.ApplyXP(u, act.XP)
			u.XP, u.Level = res.NewXP, res.NewLevel
			xpAwarded += act.XP
		}
		if act.FitnessPlanCompleted {
			u.FitnessPlansCompleted++
		}

		if progression.IsFirstActivityToday(u.LastActive, now) {
			u.Streak = progression.UpdateStreak(u.LastActive, now, u.Streak)
			if u.Streak > u.LongestStreak {
				u.LongestStreak = u.Streak
			}
		}
		lastActive := now
		u.LastActive = &lastActive

		// Rewards can push the user over another threshold, so evaluate until nothing new unlocks.
		for {
			newly := progression.Evaluate(u, templates, sig)
			if len(newly) == 0 {
				break
			}
			for _, a := range newly {
				completedAt := now
				u.Achievements = append(u.Achievements, achievement.UserAchievement{
					AchievementID: a.ID,
					Progress:      100,
					Completed:     true,
					CompletedAt:   &completedAt,
				})
				if a.XPReward > 0 {
					res := progression.ApplyXP(u, a.XPReward)
					u.XP, u.Level = res.NewXP, res.NewLevel
					xpAwarded += a.XPReward
					achievedXP += a.XPReward
				}
				unlocked = append(unlocked, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ProgressResult{
		XP:            updated.XP,
		Level:         updated.Level,
		Streak:        updated.Streak,
		LongestStreak: updated.LongestStreak,
		XPAwarded:     xpAwarded,
		LevelUp:       updated.Level > levelBefore,
		Unlocked:      unlocked,
		User:          updated,
	}
	if result.Unlocked == nil {
		result.Unlocked = []*achievement.Achievement{}
	}

	s.metrics.XPAwarded(act.Source, act.XP)
	s.metrics.XPAwarded(progression.SourceAchievement, achievedXP)
	s.metrics.AchievementsUnlocked(len(unlocked))
	s.afterCommit(ctx, act, result)
	return result, nil
}

// afterCommit runs the best-effort side effects of a committed update. Failures are only logged.
func (s *ProgressionService) afterCommit(ctx context.Context, act Activity, res *ProgressResult) {
	u := res.User

	if s.board != nil && res.XPAwarded > 0 {
		if err := s.board.SetScore(ctx, u.ID, u.Username, u.XP); err != nil {
			s.logger.Warn("leaderboard update failed", slog.String("user_id", u.ID), slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		event := &ProgressEvent{
			Type:      "progress",
			Source:    string(act.Source),
			XP:        res.XP,
			Level:     res.Level,
			Streak:    res.Streak,
			XPAwarded: res.XPAwarded,
			LevelUp:   res.LevelUp,
		}
		for _, a := range res.Unlocked {
			event.Unlocked = append(event.Unlocked, a.Name)
		}
		s.publisher.Publish(u.ID, event)
	}

	if s.notifier == nil || len(u.DeviceTokens) == 0 {
		return
	}
	for _, a := range res.Unlocked {
		s.notifier.Notify(&notification.Notification{
			UserID: u.ID,
			Type:   notification.TypeAchievement,
			Title:  "Achievement unlocked!",
			Body:   fmt.Sprintf("%s %s: +%d XP", a.Icon, a.Name, a.XPReward),
			Data:   map[string]any{"achievementId": a.ID},
			Tokens: u.DeviceTokens,
		})
	}
	if res.LevelUp {
		s.notifier.Notify(&notification.Notification{
			UserID: u.ID,
			Type:   notification.TypeLevelUp,
			Title:  "Level up!",
			Body:   fmt.Sprintf("You reached level %d", res.Level),
			Data:   map[string]any{"level": res.Level},
			Tokens: u.DeviceTokens,
		})
	}
}
