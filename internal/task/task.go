package task

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

func ParseFrequency(input string) (Frequency, error) {
	f := Frequency(strings.TrimSpace(strings.ToLower(input)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid frequency: %q", input)
	}
	return f, nil
}

type Task struct {
	ID               string     `json:"id" bson:"_id" db:"id"`
	UserID           string     `json:"userId" bson:"userId" db:"user_id"`
	Title            string     `json:"title" bson:"title" db:"title"`
	Description      string     `json:"description" bson:"description" db:"description"`
	DueDate          time.Time  `json:"dueDate" bson:"dueDate" db:"due_date"`
	DueDateString    string     `json:"dueDateString" bson:"dueDateString" db:"due_date_string"`
	Completed        bool       `json:"completed" bson:"completed" db:"completed"`
	CompletedAt      *time.Time `json:"completedAt" bson:"completedAt" db:"completed_at"`
	XPReward         int        `json:"xpReward" bson:"xpReward" db:"xp_reward"`
	Rewarded         bool       `json:"rewarded" bson:"rewarded" db:"rewarded"`
	IsHabit          bool       `json:"isHabit" bson:"isHabit" db:"is_habit"`
	IsRecurring      bool       `json:"isRecurring" bson:"isRecurring" db:"is_recurring"`
	Frequency        Frequency  `json:"frequency,omitempty" bson:"frequency" db:"frequency"`
	RecurringEndDate *time.Time `json:"recurringEndDate,omitempty" bson:"recurringEndDate" db:"recurring_end_date"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" bson:"updatedAt" db:"updated_at"`
}

// DateString formats t as YYYY-MM-DD in loc.
func DateString(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// MarkCompleted keeps CompletedAt in step with Completed.
func (t *Task) MarkCompleted(at time.Time) {
	t.Completed = true
	completedAt := at
	t.CompletedAt = &completedAt
}

func (t *Task) MarkIncomplete() {
	t.Completed = false
	t.CompletedAt = nil
}

func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.RecurringEndDate != nil {
		end := *t.RecurringEndDate
		c.RecurringEndDate = &end
	}
	return &c
}
