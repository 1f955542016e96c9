package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

type TaskService struct {
	store    storage.Store
	progress *ProgressionService
	logger   *slog.Logger
	metrics  *Metrics
}

// TaskCompletion is returned by completion and by updates that flipped a task to completed.
type TaskCompletion struct {
	Task     *task.Task      `json:"task"`
	Progress *ProgressResult `json:"progress,omitempty"`
	NextTask *task.Task      `json:"nextTask,omitempty"`
}

func NewTaskService(st storage.Store, progress *ProgressionService, logger *slog.Logger) *TaskService {
	return &TaskService{store: st, progress: progress, logger: logger}
}

func (s *TaskService) SetMetrics(m *Metrics) { s.metrics = m }

func (s *TaskService) CreateTask(ctx context.Context, userID string, req *task.CreateTaskRequest) (*task.Task, error) {
	t, err := req.Build(userID, s.progress.Now(), s.progress.Location())
	if err != nil {
		return nil, err
	}
	if err := s.store.Tasks().Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) ListTasks(ctx context.Context, userID string, filter task.ListFilter) ([]*task.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.store.Tasks().List(ctx, userID, filter)
}

func (s *TaskService) GetTask(ctx context.Context, userID, id string) (*task.Task, error) {
	return s.store.Tasks().Get(ctx, userID, id)
}

// UpdateTask applies the allow-listed fields. Setting completed=true goes through the normal
// completion flow so XP and streaks stay consistent; completed=false only reopens the task.
func (s *TaskService) UpdateTask(ctx context.Context, userID, id string, req *task.UpdateTaskRequest) (*TaskCompletion, error) {
	t, err := s.store.Tasks().Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(t, s.progress.Location()); err != nil {
		return nil, err
	}

	complete := req.Completed != nil && *req.Completed && !t.Completed
	if req.Completed != nil && !*req.Completed {
		t.MarkIncomplete()
	}
	if err := s.store.Tasks().Update(ctx, t); err != nil {
		return nil, err
	}

	if complete {
		return s.CompleteTask(ctx, userID, id)
	}
	return &TaskCompletion{Task: t}, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, id string) error {
	return s.store.Tasks().Delete(ctx, userID, id)
}

// CompleteTask marks the task completed, awards its XP once per task and, for recurring tasks,
// schedules the next occurrence. A failure to schedule is logged and counted but never returned.
func (s *TaskService) CompleteTask(ctx context.Context, userID, id string) (*TaskCompletion, error) {
	now := s.progress.Now()

	t, err := s.store.Tasks().MarkCompleted(ctx, userID, id, now)
	if err != nil {
		return nil, err
	}

	// A task reopened through PATCH still counts as activity when completed again, but pays no XP.
	claimed, err := s.store.Tasks().SetRewarded(ctx, userID, id, true)
	if err != nil {
		s.reopen(ctx, t, false)
		return nil, fmt.Errorf("failed to claim task reward: %w", err)
	}
	xp := 0
	if claimed {
		xp = progression.TaskReward(t)
	}
	t.Rewarded = true

	res, err := s.progress.Apply(ctx, userID, Activity{Source: progression.SourceTask, XP: xp})
	if err != nil {
		// Reopen the task so the user can retry and still receive the XP.
		s.reopen(ctx, t, claimed)
		return nil, fmt.Errorf("failed to apply task progress: %w", err)
	}
	s.metrics.TaskCompleted()

	out := &TaskCompletion{Task: t, Progress: res}
	if t.IsRecurring {
		out.NextTask = s.scheduleNext(ctx, userID, t)
	}
	return out, nil
}

func (s *TaskService) reopen(ctx context.Context, t *task.Task, releaseReward bool) {
	t.MarkIncomplete()
	if err := s.store.Tasks().Update(ctx, t); err != nil {
		s.logger.Error("failed to reopen task after progress error",
			slog.String("task_id", t.ID), slog.String("error", err.Error()))
	}
	if !releaseReward {
		return
	}
	if _, err := s.store.Tasks().SetRewarded(ctx, t.UserID, t.ID, false); err != nil {
		s.logger.Error("failed to release task reward after progress error",
			slog.String("task_id", t.ID), slog.String("error", err.Error()))
	}
	t.Rewarded = false
}

func (s *TaskService) scheduleNext(ctx context.Context, userID string, t *task.Task) *task.Task {
	next, err := progression.CreateNextInstance(t, userID, s.progress.Location())
	if err == nil && next != nil {
		err = s.store.Tasks().Create(ctx, next)
	}
	if err != nil {
		if !errors.Is(err, progression.ErrNotRecurring) {
			s.metrics.RecurrenceFailed()
		}
		s.logger.Warn("failed to create next recurring task",
			slog.String("task_id", t.ID), slog.String("error", err.Error()))
		return nil
	}
	return next
}
