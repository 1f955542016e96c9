package achievement

import (
	"time"
)

type CriteriaType string

const (
	CriteriaTasksCompleted       CriteriaType = "tasks_completed"
	CriteriaHabitsCreated        CriteriaType = "habits_created"
	CriteriaStreakReached        CriteriaType = "streak_reached"
	CriteriaGamesPlayed          CriteriaType = "games_played"
	CriteriaFitnessPlanCompleted CriteriaType = "fitness_plan_completed"
	CriteriaXPReached            CriteriaType = "xp_reached"
)

func (c CriteriaType) IsValid() bool {
	switch c {
	case CriteriaTasksCompleted, CriteriaHabitsCreated, CriteriaStreakReached,
		CriteriaGamesPlayed, CriteriaFitnessPlanCompleted, CriteriaXPReached:
		return true
	default:
		return false
	}
}

// Achievement is a template. Users unlock it once.
type Achievement struct {
	ID            string       `json:"id" bson:"_id" db:"id"`
	Name          string       `json:"name" bson:"name" db:"name"`
	Description   string       `json:"description" bson:"description" db:"description"`
	Icon          string       `json:"icon" bson:"icon" db:"icon"`
	XPReward      int          `json:"xpReward" bson:"xpReward" db:"xp_reward"`
	CriteriaType  CriteriaType `json:"criteriaType" bson:"criteriaType" db:"criteria_type"`
	CriteriaValue int          `json:"criteriaValue" bson:"criteriaValue" db:"criteria_value"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt" db:"created_at"`
}

// UserAchievement is the per-user progress record stored on the user.
type UserAchievement struct {
	AchievementID string     `json:"achievementId" bson:"achievementId" db:"achievement_id"`
	Progress      int        `json:"progress" bson:"progress" db:"progress"`
	Completed     bool       `json:"completed" bson:"completed" db:"completed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty" db:"completed_at"`
}

type AchievementWithStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}
