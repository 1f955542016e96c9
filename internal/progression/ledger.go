// Package progression holds the XP, streak, recurrence and achievement rules. Everything here is
// pure; persistence belongs to the callers in services.
package progression

import (
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

const (
	XPPerLevel = 100
	MaxGameXP  = 10
)

// Source names where an XP award came from. Each source has its own reward policy.
type Source string

const (
	SourceTask        Source = "task"
	SourceHabit       Source = "habit"
	SourceGame        Source = "game"
	SourceAchievement Source = "achievement"
	SourceBonus       Source = "bonus"
	SourceFitness     Source = "fitness"
)

func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceTask, SourceHabit, SourceGame, SourceBonus:
		return src, nil
	case "":
		return SourceBonus, nil
	default:
		return "", apperror.Validation("Unknown XP source %q", s)
	}
}

type LedgerResult struct {
	NewXP    int `json:"xp"`
	NewLevel int `json:"level"`
}

// LevelForXP is the single level formula: 1 + floor(xp/100).
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}

// XPToNextLevel reports how much XP is missing to reach the next level.
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return XPPerLevel - xp%XPPerLevel
}

// ValidateDelta enforces the ledger precondition. Callers run it before ApplyXP.
func ValidateDelta(delta int) error {
	if delta <= 0 {
		return apperror.Validation("XP amount must be a positive integer")
	}
	return nil
}

// ApplyXP adds delta to the user's XP and derives the level. It does not mutate u.
func ApplyXP(u *user.User, delta int) LedgerResult {
	newXP := u.XP + delta
	return LedgerResult{NewXP: newXP, NewLevel: LevelForXP(newXP)}
}

// TaskReward is the XP for completing t.
func TaskReward(t *task.Task) int {
	if t.XPReward > 0 {
		return t.XPReward
	}
	return task.DefaultXPReward
}

// HabitReward is the XP for one unit of progress on h.
func HabitReward(h *habit.Habit) int {
	if h.XPReward > 0 {
		return h.XPReward
	}
	return habit.DefaultXPReward
}

// GameReward caps a single game score submission.
func GameReward(requested int) int {
	if requested < 0 {
		return 0
	}
	if requested > MaxGameXP {
		return MaxGameXP
	}
	return requested
}

// RewardFor applies the per-source policy to a requested amount from the generic XP endpoint.
func RewardFor(source Source, requested int) int {
	switch source {
	case SourceTask:
		if requested <= 0 {
			return task.DefaultXPReward
		}
	case SourceHabit:
		if requested <= 0 {
			return habit.DefaultXPReward
		}
	case SourceGame:
		return GameReward(requested)
	}
	return requested
}
