package habit

import (
	"strings"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

const DefaultXPReward = 30

type Habit struct {
	ID              string         `json:"id" bson:"_id" db:"id"`
	UserID          string         `json:"userId" bson:"userId" db:"user_id"`
	Title           string         `json:"title" bson:"title" db:"title"`
	Description     string         `json:"description" bson:"description" db:"description"`
	Frequency       task.Frequency `json:"frequency" bson:"frequency" db:"frequency"`
	XPReward        int            `json:"xpReward" bson:"xpReward" db:"xp_reward"`
	Progress        int            `json:"progress" bson:"progress" db:"progress"`
	LastCompletedAt *time.Time     `json:"lastCompletedAt,omitempty" bson:"lastCompletedAt,omitempty" db:"last_completed_at"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" bson:"updatedAt" db:"updated_at"`
}

func (h *Habit) Clone() *Habit {
	if h == nil {
		return nil
	}
	c := *h
	if h.LastCompletedAt != nil {
		at := *h.LastCompletedAt
		c.LastCompletedAt = &at
	}
	return &c
}

type CreateHabitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	XPReward    *int   `json:"xpReward"`
}

type UpdateHabitRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	XPReward    *int    `json:"xpReward,omitempty"`
}

func validate(title, description string) error {
	n := len([]rune(title))
	if n == 0 {
		return apperror.Validation("Title is required")
	}
	if n > task.MaxTitleLength {
		return apperror.Validation("Title must be at most %d characters", task.MaxTitleLength)
	}
	if len([]rune(description)) > task.MaxDescriptionLength {
		return apperror.Validation("Description must be at most %d characters", task.MaxDescriptionLength)
	}
	return nil
}

func (r *CreateHabitRequest) Build(userID string) (*Habit, error) {
	title := strings.TrimSpace(r.Title)
	description := strings.TrimSpace(r.Description)
	if err := validate(title, description); err != nil {
		return nil, err
	}

	freq := task.FrequencyDaily
	if r.Frequency != "" {
		parsed, err := task.ParseFrequency(r.Frequency)
		if err != nil {
			return nil, apperror.Validation("Frequency must be one of daily, weekly, biweekly, monthly")
		}
		freq = parsed
	}

	xp := DefaultXPReward
	if r.XPReward != nil {
		if *r.XPReward <= 0 {
			return nil, apperror.Validation("XP reward must be positive")
		}
		xp = *r.XPReward
	}

	return &Habit{
		UserID:      userID,
		Title:       title,
		Description: description,
		Frequency:   freq,
		XPReward:    xp,
	}, nil
}

func (r *UpdateHabitRequest) Apply(h *Habit) error {
	title, description := h.Title, h.Description
	if r.Title != nil {
		title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		description = strings.TrimSpace(*r.Description)
	}
	if err := validate(title, description); err != nil {
		return err
	}
	if r.Frequency != nil {
		freq, err := task.ParseFrequency(*r.Frequency)
		if err != nil {
			return apperror.Validation("Frequency must be one of daily, weekly, biweekly, monthly")
		}
		h.Frequency = freq
	}
	if r.XPReward != nil {
		if *r.XPReward <= 0 {
			return apperror.Validation("XP reward must be positive")
		}
		h.XPReward = *r.XPReward
	}
	h.Title, h.Description = title, description
	return nil
}
