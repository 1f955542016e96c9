package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

func TestApplyUpdatesStreakOncePerDay(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	res, err := f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)

	f.advance(2 * time.Hour)
	res, err = f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak, "second activity on the same day keeps the streak")

	f.advance(24 * time.Hour)
	res, err = f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak)
	assert.Equal(t, 2, res.LongestStreak)

	f.advance(72 * time.Hour)
	res, err = f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak, "a missed day resets the streak")
	assert.Equal(t, 2, res.LongestStreak)

	stored := f.getUser(t, u.ID)
	require.NotNil(t, stored.LastActive)
	assert.True(t, stored.LastActive.Equal(f.now))
	assert.Equal(t, 20, stored.XP)
}

func TestApplyLevelsUp(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	res, err := f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 95})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Level)
	assert.False(t, res.LevelUp)
	assert.Empty(t, res.Unlocked)

	res, err = f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 10})
	require.NoError(t, err)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 2, res.Level)
	assert.Equal(t, []string{"Century"}, names(res.Unlocked))
	assert.Equal(t, 115, res.XP, "achievement reward is added on top")
	assert.Equal(t, 20, res.XPAwarded)
}

func TestApplyRejectsNegativeXP(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	_, err := f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: -1})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestApplyUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.progress.Apply(f.ctx, "missing", Activity{Source: progression.SourceBonus, XP: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFirstWeekStreakUnlocksOnSeventhDay(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	yesterday := testNow.AddDate(0, 0, -1)
	_, err := f.store.Users().UpdateProgress(f.ctx, u.ID, func(u *user.User) error {
		u.Streak = 6
		u.LongestStreak = 6
		u.LastActive = &yesterday
		return nil
	})
	require.NoError(t, err)

	res := f.completeNewTask(t, u.ID)
	assert.Equal(t, 7, res.Progress.Streak)
	assert.Equal(t, []string{"First Week Streak"}, names(res.Progress.Unlocked))
	assert.Equal(t, 90, res.Progress.XP)

	f.advance(time.Hour)
	res = f.completeNewTask(t, u.ID)
	assert.NotContains(t, names(res.Progress.Unlocked), "First Week Streak", "an achievement unlocks only once")

	seen := map[string]bool{}
	for _, ua := range f.getUser(t, u.ID).Achievements {
		assert.False(t, seen[ua.AchievementID], "duplicate achievement %s", ua.AchievementID)
		seen[ua.AchievementID] = true
	}
}

func TestConcurrentApplyKeepsEveryAward(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 5})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := f.getUser(t, u.ID)
	assert.Equal(t, 50, stored.XP)
	assert.Equal(t, 1, stored.Level)
	assert.Equal(t, 1, stored.Streak)
}

func TestApplyPublishesAndNotifies(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	f.progress.SetNotifier(notifier)
	f.progress.SetPublisher(publisher)

	u := f.newUser(t)
	_, err := f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 100})
	require.NoError(t, err)
	assert.Empty(t, notifier.types(), "users without devices get no pushes")

	require.NoError(t, f.users.RegisterDevice(f.ctx, u.ID, &user.RegisterDeviceRequest{Token: "device-1", Platform: "ios"}))
	_, err = f.progress.Apply(f.ctx, u.ID, Activity{Source: progression.SourceBonus, XP: 100})
	require.NoError(t, err)
	assert.Equal(t, []notification.NotificationType{notification.TypeLevelUp}, notifier.types())

	events := publisher.events[u.ID]
	require.Len(t, events, 2)
	assert.Equal(t, "progress", events[0].Type)
	assert.Equal(t, []string{"Century"}, events[0].Unlocked)
	assert.True(t, events[1].LevelUp)
	assert.Equal(t, 3, events[1].Level)
}
