package game

import (
	"strings"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
)

type Score struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	UserID    string    `json:"userId" bson:"userId" db:"user_id"`
	Game      string    `json:"game" bson:"game" db:"game"`
	Score     int       `json:"score" bson:"score" db:"score"`
	XPAwarded int       `json:"xpAwarded" bson:"xpAwarded" db:"xp_awarded"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
}

type SubmitScoreRequest struct {
	Game  string `json:"game"`
	Score int    `json:"score"`
	XP    int    `json:"xp"`
}

func (r *SubmitScoreRequest) Validate() error {
	r.Game = strings.TrimSpace(r.Game)
	if r.Game == "" {
		return apperror.Validation("Game is required")
	}
	if r.Score < 0 {
		return apperror.Validation("Score cannot be negative")
	}
	if r.XP < 0 {
		return apperror.Validation("XP cannot be negative")
	}
	return nil
}
