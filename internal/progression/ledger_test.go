package progression

import (
	"testing"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{0: 1, 99: 1, 100: 2, 150: 2, 199: 2, 200: 3, 1050: 11, -5: 1}
	for xp, want := range cases {
		assert.Equal(t, want, LevelForXP(xp), "xp=%d", xp)
	}
}

func TestApplyXP(t *testing.T) {
	u := &user.User{XP: 90, Level: 1}

	res := ApplyXP(u, 20)
	assert.Equal(t, 110, res.NewXP)
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, 90, u.XP, "ApplyXP must not mutate the user")

	res = ApplyXP(&user.User{XP: 0, Level: 1}, 150)
	assert.Equal(t, LedgerResult{NewXP: 150, NewLevel: 2}, res)
}

func TestApplyXPIsAdditive(t *testing.T) {
	u := &user.User{XP: 37}
	one := ApplyXP(u, 45)
	u.XP = one.NewXP
	two := ApplyXP(u, 78)

	combined := ApplyXP(&user.User{XP: 37}, 45+78)
	assert.Equal(t, combined, two)
}

func TestValidateDelta(t *testing.T) {
	require.NoError(t, ValidateDelta(1))
	for _, d := range []int{0, -1, -100} {
		err := ValidateDelta(d)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, 100, XPToNextLevel(0))
	assert.Equal(t, 1, XPToNextLevel(99))
	assert.Equal(t, 100, XPToNextLevel(200))
	assert.Equal(t, 50, XPToNextLevel(150))
}

func TestRewards(t *testing.T) {
	assert.Equal(t, 20, TaskReward(&task.Task{}))
	assert.Equal(t, 35, TaskReward(&task.Task{XPReward: 35}))
	assert.Equal(t, 30, HabitReward(&habit.Habit{}))
	assert.Equal(t, 10, GameReward(50))
	assert.Equal(t, 4, GameReward(4))
	assert.Equal(t, 0, GameReward(-3))

	assert.Equal(t, 20, RewardFor(SourceTask, 0))
	assert.Equal(t, 30, RewardFor(SourceHabit, 0))
	assert.Equal(t, 10, RewardFor(SourceGame, 25))
	assert.Equal(t, 150, RewardFor(SourceBonus, 150))
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("game")
	require.NoError(t, err)
	assert.Equal(t, SourceGame, src)

	src, err = ParseSource("")
	require.NoError(t, err)
	assert.Equal(t, SourceBonus, src)

	_, err = ParseSource("achievement")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
