// Package storage defines the persistence contract shared by the postgres, mongo and memory
// backends. Backends report missing rows with apperror.ErrNotFound and uniqueness violations with
// apperror.ErrConflict.
package storage

import (
	"context"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

// MaxProgressRetries bounds optimistic retries for backends without row locks.
const MaxProgressRetries = 3

type Store interface {
	Users() UserStore
	Tasks() TaskStore
	Habits() HabitStore
	Achievements() AchievementStore
	Badges() BadgeStore
	GameScores() GameScoreStore

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProgressFunc mutates a private copy of the user inside an atomic update. Returning an error
// aborts the update without writing anything.
type ProgressFunc func(u *user.User) error

type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateProfile(ctx context.Context, id string, username, email *string) (*user.User, error)

	// UpdateProgress is the only way xp, level, streak, lastActive, achievements, badges and the
	// fitness counter change. fn sees the latest committed state and no concurrent update for the
	// same user can interleave with it.
	UpdateProgress(ctx context.Context, id string, fn ProgressFunc) (*user.User, error)

	AddDeviceToken(ctx context.Context, id string, token notification.DeviceToken) error
	TopByXP(ctx context.Context, limit int) ([]*user.User, error)
	CountUsers(ctx context.Context) (int, error)
	// ListStreakHolders returns users with streak > 0 and at least one device token.
	ListStreakHolders(ctx context.Context) ([]*user.User, error)
}

type TaskStore interface {
	Create(ctx context.Context, t *task.Task) error
	Get(ctx context.Context, userID, id string) (*task.Task, error)
	// List returns the user's tasks matching filter, ordered by due date ascending.
	List(ctx context.Context, userID string, filter task.ListFilter) ([]*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, userID, id string) error

	// MarkCompleted flips an open task to completed. A task that is already completed yields a
	// validation error so XP is never awarded twice.
	MarkCompleted(ctx context.Context, userID, id string, at time.Time) (*task.Task, error)
	// SetRewarded sets the task's XP-paid flag and reports whether it changed. Setting it to true
	// succeeds for exactly one caller per task, so reopening a task cannot pay out again.
	SetRewarded(ctx context.Context, userID, id string, rewarded bool) (bool, error)

	CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
	// CountMasteredHabitTitles counts distinct titles of completed habit tasks that were completed
	// at least minCompletions times.
	CountMasteredHabitTitles(ctx context.Context, userID string, minCompletions int) (int, error)
}

type HabitStore interface {
	Create(ctx context.Context, h *habit.Habit) error
	Get(ctx context.Context, userID, id string) (*habit.Habit, error)
	List(ctx context.Context, userID string) ([]*habit.Habit, error)
	Update(ctx context.Context, h *habit.Habit) error
	Delete(ctx context.Context, userID, id string) error
	RecordProgress(ctx context.Context, userID, id string, at time.Time) (*habit.Habit, error)
}

type AchievementStore interface {
	List(ctx context.Context) ([]*achievement.Achievement, error)
	// Upsert inserts a by name or updates the existing template with that name.
	Upsert(ctx context.Context, a *achievement.Achievement) error
}

type BadgeStore interface {
	List(ctx context.Context) ([]*store.Badge, error)
	Get(ctx context.Context, id string) (*store.Badge, error)
	Upsert(ctx context.Context, b *store.Badge) error
}

type GameScoreStore interface {
	Create(ctx context.Context, s *game.Score) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*game.Score, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
