package task

import (
	"strings"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	DefaultXPReward      = 20
)

type CreateTaskRequest struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	DueDate          *string `json:"dueDate"`
	XPReward         *int    `json:"xpReward"`
	IsHabit          bool    `json:"isHabit"`
	IsRecurring      bool    `json:"isRecurring"`
	Frequency        string  `json:"frequency"`
	RecurringEndDate *string `json:"recurringEndDate"`
}

// UpdateTaskRequest is the allow-list of task fields a client may change. Anything else in the
// request body is rejected by the decoder.
type UpdateTaskRequest struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	DueDate          *string `json:"dueDate,omitempty"`
	XPReward         *int    `json:"xpReward,omitempty"`
	Completed        *bool   `json:"completed,omitempty"`
	IsHabit          *bool   `json:"isHabit,omitempty"`
	IsRecurring      *bool   `json:"isRecurring,omitempty"`
	Frequency        *string `json:"frequency,omitempty"`
	RecurringEndDate *string `json:"recurringEndDate,omitempty"`
}

type ListFilter struct {
	Date      string
	Completed *bool
	IsHabit   *bool
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates (midnight in loc).
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperror.Validation("Invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func validateTitle(title string) error {
	n := len([]rune(title))
	if n == 0 {
		return apperror.Validation("Title is required")
	}
	if n > MaxTitleLength {
		return apperror.Validation("Title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if len([]rune(description)) > MaxDescriptionLength {
		return apperror.Validation("Description must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

// Build validates the request and returns the task it describes, without id or timestamps.
func (r *CreateTaskRequest) Build(userID string, now time.Time, loc *time.Location) (*Task, error) {
	title := strings.TrimSpace(r.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(r.Description)
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	due := StartOfDay(now, loc)
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		parsed, err := ParseDate(*r.DueDate, loc)
		if err != nil {
			return nil, err
		}
		due = parsed
	}

	xp := DefaultXPReward
	if r.XPReward != nil {
		if *r.XPReward <= 0 {
			return nil, apperror.Validation("XP reward must be positive")
		}
		xp = *r.XPReward
	}

	t := &Task{
		UserID:        userID,
		Title:         title,
		Description:   description,
		DueDate:       due,
		DueDateString: DateString(due, loc),
		XPReward:      xp,
		IsHabit:       r.IsHabit,
		IsRecurring:   r.IsRecurring,
	}

	if r.IsRecurring || r.Frequency != "" {
		freq, err := ParseFrequency(r.Frequency)
		if err != nil {
			return nil, apperror.Validation("Frequency must be one of daily, weekly, biweekly, monthly")
		}
		t.Frequency = freq
	}

	if r.RecurringEndDate != nil && strings.TrimSpace(*r.RecurringEndDate) != "" {
		end, err := ParseDate(*r.RecurringEndDate, loc)
		if err != nil {
			return nil, err
		}
		t.RecurringEndDate = &end
	}
	return t, nil
}

// Apply copies the allowed fields onto t. Completion is handled by the caller because it
// triggers progression.
func (r *UpdateTaskRequest) Apply(t *Task, loc *time.Location) error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		t.Title = title
	}
	if r.Description != nil {
		description := strings.TrimSpace(*r.Description)
		if err := validateDescription(description); err != nil {
			return err
		}
		t.Description = description
	}
	if r.DueDate != nil {
		due, err := ParseDate(*r.DueDate, loc)
		if err != nil {
			return err
		}
		t.DueDate = due
		t.DueDateString = DateString(due, loc)
	}
	if r.XPReward != nil {
		if *r.XPReward <= 0 {
			return apperror.Validation("XP reward must be positive")
		}
		t.XPReward = *r.XPReward
	}
	if r.IsHabit != nil {
		t.IsHabit = *r.IsHabit
	}
	if r.Frequency != nil {
		freq, err := ParseFrequency(*r.Frequency)
		if err != nil {
			return apperror.Validation("Frequency must be one of daily, weekly, biweekly, monthly")
		}
		t.Frequency = freq
	}
	if r.IsRecurring != nil {
		t.IsRecurring = *r.IsRecurring
	}
	if t.IsRecurring && !t.Frequency.IsValid() {
		return apperror.Validation("Recurring tasks need a frequency")
	}
	if r.RecurringEndDate != nil {
		if strings.TrimSpace(*r.RecurringEndDate) == "" {
			t.RecurringEndDate = nil
		} else {
			end, err := ParseDate(*r.RecurringEndDate, loc)
			if err != nil {
				return err
			}
			t.RecurringEndDate = &end
		}
	}
	return nil
}

func (f *ListFilter) Validate() error {
	if f.Date == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, f.Date); err != nil {
		return apperror.Validation("Invalid date %q, expected YYYY-MM-DD", f.Date)
	}
	return nil
}

// Matches reports whether t passes the filter. Used by the in-memory store.
func (f ListFilter) Matches(t *Task) bool {
	if f.Date != "" && t.DueDateString != f.Date {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.IsHabit != nil && t.IsHabit != *f.IsHabit {
		return false
	}
	return true
}
