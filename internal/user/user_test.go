package user

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
)

func TestCloneDoesNotShareSlices(t *testing.T) {
	now := time.Now()
	u := &User{
		ID:           "u1",
		LastActive:   &now,
		Badges:       []string{"b1"},
		Achievements: []achievement.UserAchievement{{AchievementID: "a1", CompletedAt: &now}},
	}

	c := u.Clone()
	c.Badges[0] = "changed"
	c.Achievements[0].AchievementID = "changed"
	*c.LastActive = now.Add(time.Hour)

	assert.Equal(t, "b1", u.Badges[0])
	assert.Equal(t, "a1", u.Achievements[0].AchievementID)
	assert.True(t, u.LastActive.Equal(now))
	assert.True(t, c.HasBadge("changed"))
	assert.False(t, u.HasAchievement("changed"))
}

func TestRegisterRequestValidate(t *testing.T) {
	req := RegisterRequest{Username: "  quester ", Email: " Hero@Example.com ", Password: "secret1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "quester", req.Username)
	assert.Equal(t, "hero@example.com", req.Email)

	bad := []RegisterRequest{
		{Username: "ab", Email: "a@b.co", Password: "secret1"},
		{Username: "quester", Email: "nope", Password: "secret1"},
		{Username: "quester", Email: "a@b.co", Password: "123"},
	}
	for _, r := range bad {
		err := r.Validate()
		assert.True(t, errors.Is(err, apperror.ErrValidation), "expected validation error for %+v", r)
	}
}

func TestUpdateProfileRequestRequiresAField(t *testing.T) {
	var req UpdateProfileRequest
	assert.True(t, errors.Is(req.Validate(), apperror.ErrValidation))

	name := " newname "
	req.Username = &name
	require.NoError(t, req.Validate())
	assert.Equal(t, "newname", *req.Username)
}

func TestRegisterDeviceDefaultsPlatform(t *testing.T) {
	req := RegisterDeviceRequest{Token: " tok "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "android", req.Platform)
	assert.Equal(t, "tok", req.Token)

	req = RegisterDeviceRequest{Token: "tok", Platform: "symbian"}
	assert.Error(t, req.Validate())
}
