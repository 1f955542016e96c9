package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/storagetest"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, New())
}

func TestReturnedUsersAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := storagetest.NewUser(t, s)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.XP = 500
	got.Badges = append(got.Badges, "leak")

	again, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.XP)
	assert.Empty(t, again.Badges)
}

func TestUpdateProgressBumpsRevision(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := storagetest.NewUser(t, s)

	first, err := s.Users().UpdateProgress(ctx, u.ID, func(cur *user.User) error { return nil })
	require.NoError(t, err)
	second, err := s.Users().UpdateProgress(ctx, u.ID, func(cur *user.User) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, first.Rev+1, second.Rev)
}

func TestStreakHolders(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := storagetest.NewUser(t, s)
	storagetest.NewUser(t, s)

	_, err := s.Users().UpdateProgress(ctx, a.ID, func(cur *user.User) error {
		cur.Streak = 3
		return nil
	})
	require.NoError(t, err)

	holders, err := s.Users().ListStreakHolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, holders, "users without devices are skipped")
}
