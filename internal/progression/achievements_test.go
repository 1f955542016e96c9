package progression

import (
	"testing"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templates() []*achievement.Achievement {
	return []*achievement.Achievement{
		{ID: "a-tasks", Name: "Task Champion", XPReward: 50, CriteriaType: achievement.CriteriaTasksCompleted, CriteriaValue: 5},
		{ID: "a-week", Name: "First Week Streak", XPReward: 100, CriteriaType: achievement.CriteriaStreakReached, CriteriaValue: 7},
		{ID: "a-xp", Name: "Century", XPReward: 25, CriteriaType: achievement.CriteriaXPReached, CriteriaValue: 100},
		{ID: "a-habits", Name: "Habit Master", XPReward: 75, CriteriaType: achievement.CriteriaHabitsCreated, CriteriaValue: 3},
		{ID: "a-games", Name: "Player One", XPReward: 10, CriteriaType: achievement.CriteriaGamesPlayed, CriteriaValue: 1},
		{ID: "a-fit", Name: "Fit for Battle", XPReward: 40, CriteriaType: achievement.CriteriaFitnessPlanCompleted, CriteriaValue: 1},
	}
}

func names(as []*achievement.Achievement) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Name)
	}
	return out
}

func TestEvaluateNothing(t *testing.T) {
	u := &user.User{Streak: 1}
	assert.Empty(t, Evaluate(u, templates(), Signal{}))
}

func TestEvaluateStreakUnlocksOnce(t *testing.T) {
	u := &user.User{Streak: 7}

	got := Evaluate(u, templates(), Signal{})
	require.Len(t, got, 1)
	assert.Equal(t, "First Week Streak", got[0].Name)

	u.Achievements = append(u.Achievements, achievement.UserAchievement{AchievementID: got[0].ID, Completed: true})
	assert.Empty(t, Evaluate(u, templates(), Signal{}))
}

func TestEvaluateCriteria(t *testing.T) {
	u := &user.User{XP: 120, FitnessPlansCompleted: 1}
	got := Evaluate(u, templates(), Signal{TasksCompletedToday: 5, HabitTitlesMastered: 3, GamesPlayed: 2})

	assert.Equal(t, []string{"Task Champion", "Century", "Habit Master", "Player One", "Fit for Battle"}, names(got))
}

func TestEvaluateBelowThresholds(t *testing.T) {
	u := &user.User{XP: 99, Streak: 6}
	got := Evaluate(u, templates(), Signal{TasksCompletedToday: 4, HabitTitlesMastered: 2})
	assert.Empty(t, got)
}

func TestEvaluateIgnoresUnknownCriteria(t *testing.T) {
	u := &user.User{XP: 1000}
	odd := []*achievement.Achievement{nil, {ID: "x", CriteriaType: "login_count", CriteriaValue: 0}}
	assert.Empty(t, Evaluate(u, odd, Signal{}))
}
