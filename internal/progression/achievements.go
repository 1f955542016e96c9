package progression

import (
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

// HabitMasteryCompletions is how many completions a habit title needs to count as mastered.
const HabitMasteryCompletions = 3

// Signal carries the counts that live outside the user document.
type Signal struct {
	TasksCompletedToday int
	// HabitTitlesMastered is the number of distinct titles among completed habit tasks with at
	// least HabitMasteryCompletions completions each.
	HabitTitlesMastered int
	GamesPlayed         int
}

func criteriaMet(a *achievement.Achievement, u *user.User, s Signal) bool {
	switch a.CriteriaType {
	case achievement.CriteriaTasksCompleted:
		return s.TasksCompletedToday >= a.CriteriaValue
	case achievement.CriteriaStreakReached:
		return u.Streak >= a.CriteriaValue
	case achievement.CriteriaXPReached:
		return u.XP >= a.CriteriaValue
	case achievement.CriteriaHabitsCreated:
		return s.HabitTitlesMastered >= a.CriteriaValue
	case achievement.CriteriaGamesPlayed:
		return s.GamesPlayed >= a.CriteriaValue
	case achievement.CriteriaFitnessPlanCompleted:
		return u.FitnessPlansCompleted >= a.CriteriaValue
	default:
		return false
	}
}

// Evaluate returns the templates u has newly crossed, in template order. Templates already in
// u.Achievements are never returned.
func Evaluate(u *user.User, templates []*achievement.Achievement, s Signal) []*achievement.Achievement {
	var unlocked []*achievement.Achievement
	for _, a := range templates {
		if a == nil || u.HasAchievement(a.ID) {
			continue
		}
		if criteriaMet(a, u, s) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}
