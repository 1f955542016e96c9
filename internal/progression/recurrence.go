package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

var ErrNotRecurring = errors.New("task is not a completed recurring task")

// NextDueDate adds one unit of freq to due. Monthly uses calendar months (Jan 31 rolls to Mar 2/3).
func NextDueDate(due time.Time, freq task.Frequency) (time.Time, error) {
	if due.IsZero() {
		return time.Time{}, fmt.Errorf("missing due date")
	}
	switch freq {
	case task.FrequencyDaily:
		return due.AddDate(0, 0, 1), nil
	case task.FrequencyWeekly:
		return due.AddDate(0, 0, 7), nil
	case task.FrequencyBiweekly:
		return due.AddDate(0, 0, 14), nil
	case task.FrequencyMonthly:
		return due.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, fmt.Errorf("invalid frequency: %q", freq)
	}
}

// CreateNextInstance builds the next occurrence of a just completed recurring task. It returns
// nil, nil when the series has ended. The returned task has no id yet.
func CreateNextInstance(completed *task.Task, ownerID string, loc *time.Location) (*task.Task, error) {
	if completed == nil || !completed.IsRecurring || !completed.Completed {
		return nil, ErrNotRecurring
	}
	if loc == nil {
		loc = time.UTC
	}

	next, err := NextDueDate(completed.DueDate.In(loc), completed.Frequency)
	if err != nil {
		return nil, fmt.Errorf("compute next due date for task %s: %w", completed.ID, err)
	}

	if completed.RecurringEndDate != nil && next.After(*completed.RecurringEndDate) {
		return nil, nil
	}

	instance := &task.Task{
		UserID:        ownerID,
		Title:         completed.Title,
		Description:   completed.Description,
		DueDate:       next,
		DueDateString: task.DateString(next, loc),
		Completed:     false,
		CompletedAt:   nil,
		XPReward:      completed.XPReward,
		IsHabit:       completed.IsHabit,
		IsRecurring:   completed.IsRecurring,
		Frequency:     completed.Frequency,
	}
	if completed.RecurringEndDate != nil {
		end := *completed.RecurringEndDate
		instance.RecurringEndDate = &end
	}
	return instance, nil
}
