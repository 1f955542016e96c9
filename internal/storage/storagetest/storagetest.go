// Package storagetest holds the behaviour every storage backend must share. Backend packages run
// it from their own tests.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

// Run exercises s. The store may be shared with other runs, so every record uses fresh names.
func Run(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))

	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
	t.Run("UpdateProgress", func(t *testing.T) { testUpdateProgress(t, s) })
	t.Run("ConcurrentProgress", func(t *testing.T) { testConcurrentProgress(t, s) })
	t.Run("Tasks", func(t *testing.T) { testTasks(t, s) })
	t.Run("HabitCounts", func(t *testing.T) { testHabitCounts(t, s) })
	t.Run("Habits", func(t *testing.T) { testHabits(t, s) })
	t.Run("Catalogs", func(t *testing.T) { testCatalogs(t, s) })
	t.Run("GameScores", func(t *testing.T) { testGameScores(t, s) })
}

// NewUser creates a user with a unique username and email.
func NewUser(t *testing.T, s storage.Store) *user.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &user.User{
		Username:     "player_" + suffix,
		Email:        "player_" + suffix + "@example.com",
		PasswordHash: "hash",
		Level:        1,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, 1, got.Level)
	assert.Nil(t, got.LastActive)

	byEmail, err := s.Users().GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	dup := &user.User{Username: u.Username, Email: "other_" + u.Email, PasswordHash: "x", Level: 1}
	assert.ErrorIs(t, s.Users().Create(ctx, dup), apperror.ErrConflict)

	dup = &user.User{Username: "other_" + u.Username, Email: u.Email, PasswordHash: "x", Level: 1}
	assert.ErrorIs(t, s.Users().Create(ctx, dup), apperror.ErrConflict)

	other := NewUser(t, s)
	_, err = s.Users().UpdateProfile(ctx, other.ID, &u.Username, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	newName := "renamed_" + uuid.NewString()[:8]
	updated, err := s.Users().UpdateProfile(ctx, other.ID, &newName, nil)
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Username)
	assert.Equal(t, other.Email, updated.Email)

	tok := notification.DeviceToken{Token: "tok-" + u.ID, Platform: "android", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Users().AddDeviceToken(ctx, u.ID, tok))
	require.NoError(t, s.Users().AddDeviceToken(ctx, u.ID, tok))
	got, err = s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.DeviceTokens, 1)
	assert.Equal(t, tok.Token, got.DeviceTokens[0].Token)
}

func testUpdateProgress(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)
	now := time.Now().UTC().Truncate(time.Millisecond)

	updated, err := s.Users().UpdateProgress(ctx, u.ID, func(cur *user.User) error {
		cur.XP += 120
		cur.Level = 2
		cur.Streak = 7
		cur.LongestStreak = 7
		cur.LastActive = &now
		cur.Badges = append(cur.Badges, "badge-1")
		cur.FitnessPlansCompleted++
		cur.Achievements = append(cur.Achievements, achievement.UserAchievement{
			AchievementID: "ach-1", Progress: 100, Completed: true, CompletedAt: &now,
		})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 120, updated.XP)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.XP)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 7, got.Streak)
	assert.Equal(t, 7, got.LongestStreak)
	assert.Equal(t, 1, got.FitnessPlansCompleted)
	assert.Equal(t, []string{"badge-1"}, got.Badges)
	require.NotNil(t, got.LastActive)
	assert.WithinDuration(t, now, *got.LastActive, time.Millisecond)
	require.Len(t, got.Achievements, 1)
	assert.True(t, got.HasAchievement("ach-1"))

	abort := errors.New("abort")
	_, err = s.Users().UpdateProgress(ctx, u.ID, func(cur *user.User) error {
		cur.XP = 9999
		return abort
	})
	assert.ErrorIs(t, err, abort)

	got, err = s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.XP, "aborted update must not be written")

	_, err = s.Users().UpdateProgress(ctx, uuid.NewString(), func(*user.User) error { return nil })
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testConcurrentProgress(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for attempt := 0; attempt < 5; attempt++ {
				_, errs[i] = s.Users().UpdateProgress(ctx, u.ID, func(cur *user.User) error {
					cur.XP += 10
					return nil
				})
				if !errors.Is(errs[i], apperror.ErrConflict) {
					return
				}
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*10, got.XP, "no award may be lost")
}

func newTask(userID, title string, due time.Time, isHabit bool) *task.Task {
	return &task.Task{
		UserID:        userID,
		Title:         title,
		DueDate:       due,
		DueDateString: task.DateString(due, time.UTC),
		XPReward:      20,
		IsHabit:       isHabit,
	}
}

func testTasks(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)
	other := NewUser(t, s)

	d1 := time.Date(2023, 5, 16, 0, 0, 0, 0, time.UTC)
	d0 := time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)

	later := newTask(u.ID, "later", d1, false)
	require.NoError(t, s.Tasks().Create(ctx, later))
	sooner := newTask(u.ID, "sooner", d0, false)
	require.NoError(t, s.Tasks().Create(ctx, sooner))
	require.NoError(t, s.Tasks().Create(ctx, newTask(other.ID, "not mine", d0, false)))

	list, err := s.Tasks().List(ctx, u.ID, task.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sooner", list[0].Title)
	assert.Equal(t, "later", list[1].Title)

	list, err = s.Tasks().List(ctx, u.ID, task.ListFilter{Date: "2023-05-16"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, later.ID, list[0].ID)

	_, err = s.Tasks().Get(ctx, other.ID, later.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "tasks are scoped to their owner")

	later.Title = "later, renamed"
	require.NoError(t, s.Tasks().Update(ctx, later))
	got, err := s.Tasks().Get(ctx, u.ID, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "later, renamed", got.Title)

	at := time.Now().UTC().Truncate(time.Millisecond)
	done, err := s.Tasks().MarkCompleted(ctx, u.ID, sooner.ID, at)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)

	_, err = s.Tasks().MarkCompleted(ctx, u.ID, sooner.ID, at)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	completed := true
	list, err = s.Tasks().List(ctx, u.ID, task.ListFilter{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sooner.ID, list[0].ID)

	n, err := s.Tasks().CountCompletedBetween(ctx, u.ID, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Tasks().CountCompletedBetween(ctx, u.ID, at.Add(time.Hour), at.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Tasks().CountCompleted(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	changed, err := s.Tasks().SetRewarded(ctx, u.ID, sooner.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Tasks().SetRewarded(ctx, u.ID, sooner.ID, true)
	require.NoError(t, err)
	assert.False(t, changed, "a task pays out once")

	got, err = s.Tasks().Get(ctx, u.ID, sooner.ID)
	require.NoError(t, err)
	assert.True(t, got.Rewarded)
	got.Rewarded = false
	got.Title = "sooner, renamed"
	require.NoError(t, s.Tasks().Update(ctx, got))
	got, err = s.Tasks().Get(ctx, u.ID, sooner.ID)
	require.NoError(t, err)
	assert.Equal(t, "sooner, renamed", got.Title)
	assert.True(t, got.Rewarded, "Update leaves the reward flag alone")

	_, err = s.Tasks().SetRewarded(ctx, other.ID, sooner.ID, true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, s.Tasks().Delete(ctx, u.ID, later.ID))
	_, err = s.Tasks().Get(ctx, u.ID, later.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, s.Tasks().Delete(ctx, u.ID, later.ID), apperror.ErrNotFound)
}

func testHabitCounts(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)
	due := time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)
	at := time.Now().UTC()

	complete := func(title string, times int) {
		for i := 0; i < times; i++ {
			tk := newTask(u.ID, title, due.AddDate(0, 0, i), true)
			require.NoError(t, s.Tasks().Create(ctx, tk))
			_, err := s.Tasks().MarkCompleted(ctx, u.ID, tk.ID, at)
			require.NoError(t, err)
		}
	}
	complete("Read", 3)
	complete("Run", 4)
	complete("Meditate", 2)

	// Open habit tasks do not count.
	require.NoError(t, s.Tasks().Create(ctx, newTask(u.ID, "Meditate", due, true)))

	n, err := s.Tasks().CountMasteredHabitTitles(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	complete("Meditate", 1)
	n, err = s.Tasks().CountMasteredHabitTitles(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testHabits(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)

	h := &habit.Habit{UserID: u.ID, Title: "Drink water", Frequency: task.FrequencyDaily, XPReward: 30}
	require.NoError(t, s.Habits().Create(ctx, h))
	require.NotEmpty(t, h.ID)

	at := time.Now().UTC().Truncate(time.Millisecond)
	progressed, err := s.Habits().RecordProgress(ctx, u.ID, h.ID, at)
	require.NoError(t, err)
	assert.Equal(t, 1, progressed.Progress)
	require.NotNil(t, progressed.LastCompletedAt)

	h.Title = "Drink more water"
	require.NoError(t, s.Habits().Update(ctx, h))

	list, err := s.Habits().List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Drink more water", list[0].Title)
	assert.Equal(t, 1, list[0].Progress, "update keeps progress")

	require.NoError(t, s.Habits().Delete(ctx, u.ID, h.ID))
	_, err = s.Habits().Get(ctx, u.ID, h.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testCatalogs(t *testing.T, s storage.Store) {
	ctx := context.Background()
	name := "Test Achievement " + uuid.NewString()[:8]

	a := &achievement.Achievement{Name: name, XPReward: 10, CriteriaType: achievement.CriteriaXPReached, CriteriaValue: 50}
	require.NoError(t, s.Achievements().Upsert(ctx, a))
	firstID := a.ID
	require.NotEmpty(t, firstID)

	again := &achievement.Achievement{Name: name, XPReward: 15, CriteriaType: achievement.CriteriaXPReached, CriteriaValue: 50}
	require.NoError(t, s.Achievements().Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID, "upsert is keyed by name")

	list, err := s.Achievements().List(ctx)
	require.NoError(t, err)
	var found *achievement.Achievement
	for _, x := range list {
		if x.Name == name {
			require.Nil(t, found, "duplicate template")
			found = x
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 15, found.XPReward)

	badgeName := "Test Badge " + uuid.NewString()[:8]
	b := &store.Badge{Name: badgeName, Price: 40, Rarity: store.RarityRare, Icon: "*"}
	require.NoError(t, s.Badges().Upsert(ctx, b))
	got, err := s.Badges().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Price)
	assert.Equal(t, store.RarityRare, got.Rarity)

	_, err = s.Badges().Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testGameScores(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := NewUser(t, s)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.GameScores().Create(ctx, &game.Score{UserID: u.ID, Game: "snake", Score: i * 100, XPAwarded: 10}))
		time.Sleep(2 * time.Millisecond)
	}

	n, err := s.GameScores().CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := s.GameScores().ListByUser(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 300, list[0].Score, "newest first")
}
