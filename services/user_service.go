package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/leaderboard"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// LeaderboardReader is the read side of the Redis leaderboard.
type LeaderboardReader interface {
	LeaderboardCache
	Top(ctx context.Context, limit int) ([]*leaderboard.LeaderboardEntry, error)
	Position(ctx context.Context, userID string) (*leaderboard.LeaderboardEntry, error)
	Count(ctx context.Context) (int, error)
	Rebuild(ctx context.Context, users []*user.User) error
}

type UserService struct {
	store    storage.Store
	progress *ProgressionService
	board    LeaderboardReader
	logger   *slog.Logger
}

func NewUserService(st storage.Store, progress *ProgressionService, logger *slog.Logger) *UserService {
	return &UserService{store: st, progress: progress, logger: logger}
}

func (s *UserService) SetLeaderboard(b LeaderboardReader) { s.board = b }

func (s *UserService) GetProfile(ctx context.Context, userID string) (*user.Profile, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.Profile{
		User:            u,
		StreakExpiresIn: progression.StreakExpiresIn(u.LastActive, s.progress.Now()),
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := s.store.Users().UpdateProfile(ctx, userID, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if s.board != nil && req.Username != nil {
		if err := s.board.SetScore(ctx, u.ID, u.Username, u.XP); err != nil {
			s.logger.Warn("leaderboard update failed", slog.String("user_id", u.ID), slog.String("error", err.Error()))
		}
	}
	return u, nil
}

func (s *UserService) GetUserStats(ctx context.Context, userID string) (*user.Stats, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.progress.Now()
	dayStart := task.StartOfDay(now, s.progress.Location())

	today, err := s.store.Tasks().CountCompletedBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to count today's tasks: %w", err)
	}
	total, err := s.store.Tasks().CountCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	games, err := s.store.GameScores().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}

	unlocked := 0
	for _, a := range u.Achievements {
		if a.Completed {
			unlocked++
		}
	}

	return &user.Stats{
		XP:                   u.XP,
		Level:                u.Level,
		XPToNextLevel:        progression.XPToNextLevel(u.XP),
		Streak:               u.Streak,
		LongestStreak:        u.LongestStreak,
		StreakExpiresIn:      progression.StreakExpiresIn(u.LastActive, now),
		TasksCompletedToday:  today,
		TasksCompletedTotal:  total,
		AchievementsUnlocked: unlocked,
		BadgesOwned:          len(u.Badges),
		GamesPlayed:          games,
	}, nil
}

func (s *UserService) ListAchievements(ctx context.Context) ([]*achievement.Achievement, error) {
	return s.store.Achievements().List(ctx)
}

// GetAchievements lists every template with the user's unlock status, unlocked first.
func (s *UserService) GetAchievements(ctx context.Context, userID string) ([]*achievement.AchievementWithStatus, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	templates, err := s.store.Achievements().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}

	status := make(map[string]achievement.UserAchievement, len(u.Achievements))
	for _, ua := range u.Achievements {
		status[ua.AchievementID] = ua
	}

	unlocked := []*achievement.AchievementWithStatus{}
	locked := []*achievement.AchievementWithStatus{}
	for _, a := range templates {
		ach := &achievement.AchievementWithStatus{Achievement: *a}
		if ua, ok := status[a.ID]; ok && ua.Completed {
			ach.Unlocked = true
			ach.UnlockedAt = ua.CompletedAt
			unlocked = append(unlocked, ach)
			continue
		}
		locked = append(locked, ach)
	}
	return append(unlocked, locked...), nil
}

// AwardXP is the generic XP endpoint. The per-source policy still applies, so a "game" award is
// capped like a real game score.
func (s *UserService) AwardXP(ctx context.Context, userID string, req *user.AwardXPRequest) (*ProgressResult, error) {
	source, err := progression.ParseSource(req.Source)
	if err != nil {
		return nil, err
	}
	if err := progression.ValidateDelta(req.Amount); err != nil {
		return nil, err
	}
	return s.progress.Apply(ctx, userID, Activity{Source: source, XP: progression.RewardFor(source, req.Amount)})
}

func (s *UserService) CompleteFitnessPlan(ctx context.Context, userID string) (*ProgressResult, error) {
	return s.progress.Apply(ctx, userID, Activity{Source: progression.SourceFitness, FitnessPlanCompleted: true})
}

func (s *UserService) RegisterDevice(ctx context.Context, userID string, req *user.RegisterDeviceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.store.Users().AddDeviceToken(ctx, userID, notification.DeviceToken{
		Token:     req.Token,
		Platform:  req.Platform,
		CreatedAt: time.Now().UTC(),
	})
}

// GetGlobalLeaderboard reads the Redis board when it is warm and falls back to the store,
// warming the cache on the way.
func (s *UserService) GetGlobalLeaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	if s.board != nil {
		board, err := s.cachedLeaderboard(ctx, userID, limit)
		if err == nil && board != nil {
			return board, nil
		}
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
		}
	}
	return s.storeLeaderboard(ctx, userID, limit)
}

// cachedLeaderboard returns nil without error when the cache does not hold every user, e.g. after
// a Redis flush or while users who never earned XP are missing from the ZSET.
func (s *UserService) cachedLeaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error) {
	total, err := s.board.Count(ctx)
	if err != nil || total == 0 {
		return nil, err
	}
	stored, err := s.store.Users().CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if total != stored {
		s.logger.Debug("leaderboard cache incomplete", slog.Int("cached", total), slog.Int("users", stored))
		return nil, nil
	}

	entries, err := s.board.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	position, err := s.board.Position(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: position,
		TotalUsers:   total,
		Source:       "cache",
	}, nil
}

// RebuildLeaderboard loads every user into the cache. serve calls it on startup.
func (s *UserService) RebuildLeaderboard(ctx context.Context) error {
	if s.board == nil {
		return nil
	}
	total, err := s.store.Users().CountUsers(ctx)
	if err != nil {
		return err
	}
	var users []*user.User
	if total > 0 {
		if users, err = s.store.Users().TopByXP(ctx, total); err != nil {
			return err
		}
	}
	return s.board.Rebuild(ctx, users)
}

func (s *UserService) storeLeaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error) {
	users, err := s.store.Users().TopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Users().CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.LeaderboardEntry, 0, len(users))
	var position *leaderboard.LeaderboardEntry
	for i, u := range users {
		entry := &leaderboard.LeaderboardEntry{
			UserID:   u.ID,
			Username: u.Username,
			XP:       u.XP,
			Level:    u.Level,
			Rank:     i + 1,
		}
		entries = append(entries, entry)
		if u.ID == userID {
			position = entry
		}
	}

	if s.board != nil {
		var err error
		if total <= limit {
			err = s.board.Rebuild(ctx, users)
		} else {
			err = s.RebuildLeaderboard(ctx)
		}
		if err != nil {
			s.logger.Warn("leaderboard cache rebuild failed", slog.String("error", err.Error()))
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: position,
		TotalUsers:   total,
		Source:       "store",
	}, nil
}
