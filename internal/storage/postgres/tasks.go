package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

const taskColumns = `id, user_id, title, description, due_date, due_date_string, completed, completed_at,
	xp_reward, rewarded, is_habit, is_recurring, frequency, recurring_end_date, created_at, updated_at`

type taskStore struct {
	db *pgxpool.Pool
}

func (s *taskStore) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = newID()
	}
	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, due_date_string, completed,
			completed_at, xp_reward, is_habit, is_recurring, frequency, recurring_end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.DueDate, t.DueDateString, t.Completed,
		t.CompletedAt, t.XPReward, t.IsHabit, t.IsRecurring, t.Frequency, t.RecurringEndDate,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *taskStore) Get(ctx context.Context, userID, id string) (*task.Task, error) {
	rows, err := s.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		return nil, notFound(err, "Task")
	}
	return t, nil
}

func (s *taskStore) List(ctx context.Context, userID string, filter task.ListFilter) ([]*task.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		  AND ($2::text IS NULL OR due_date_string = $2)
		  AND ($3::boolean IS NULL OR completed = $3)
		  AND ($4::boolean IS NULL OR is_habit = $4)
		ORDER BY due_date ASC, created_at ASC
	`
	var date *string
	if filter.Date != "" {
		date = &filter.Date
	}

	rows, err := s.db.Query(ctx, query, userID, date, filter.Completed, filter.IsHabit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, nil
}

func (s *taskStore) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET title = $3,
		    description = $4,
		    due_date = $5,
		    due_date_string = $6,
		    completed = $7,
		    completed_at = $8,
		    xp_reward = $9,
		    is_habit = $10,
		    is_recurring = $11,
		    frequency = $12,
		    recurring_end_date = $13,
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.DueDate, t.DueDateString, t.Completed,
		t.CompletedAt, t.XPReward, t.IsHabit, t.IsRecurring, t.Frequency, t.RecurringEndDate,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperror.NotFound("Task not found")
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *taskStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Task not found")
	}
	return nil
}

func (s *taskStore) MarkCompleted(ctx context.Context, userID, id string, at time.Time) (*task.Task, error) {
	query := `
		UPDATE tasks
		SET completed = TRUE, completed_at = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT completed
		RETURNING ` + taskColumns
	rows, err := s.db.Query(ctx, query, id, userID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err == nil {
		return t, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	// Nothing updated: either the task does not exist or it was already completed.
	if _, getErr := s.Get(ctx, userID, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperror.Validation("Task already completed")
}

func (s *taskStore) SetRewarded(ctx context.Context, userID, id string, rewarded bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE tasks
		SET rewarded = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND rewarded <> $3
	`, id, userID, rewarded)
	if err != nil {
		return false, fmt.Errorf("failed to update task reward: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *taskStore) CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND completed AND completed_at >= $2 AND completed_at < $3
	`
	var n int
	if err := s.db.QueryRow(ctx, query, userID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return n, nil
}

func (s *taskStore) CountCompleted(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND completed`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return n, nil
}

func (s *taskStore) CountMasteredHabitTitles(ctx context.Context, userID string, minCompletions int) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT title
			FROM tasks
			WHERE user_id = $1 AND is_habit AND completed
			GROUP BY title
			HAVING COUNT(*) >= $2
		) mastered
	`
	var n int
	if err := s.db.QueryRow(ctx, query, userID, minCompletions).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count mastered habits: %w", err)
	}
	return n, nil
}
