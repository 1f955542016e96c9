package services

import (
	"context"
	"fmt"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
)

type HabitService struct {
	store    storage.Store
	progress *ProgressionService
}

type HabitProgress struct {
	Habit    *habit.Habit    `json:"habit"`
	Progress *ProgressResult `json:"progress"`
}

func NewHabitService(st storage.Store, progress *ProgressionService) *HabitService {
	return &HabitService{store: st, progress: progress}
}

func (s *HabitService) CreateHabit(ctx context.Context, userID string, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	h, err := req.Build(userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Habits().Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HabitService) ListHabits(ctx context.Context, userID string) ([]*habit.Habit, error) {
	return s.store.Habits().List(ctx, userID)
}

func (s *HabitService) UpdateHabit(ctx context.Context, userID, id string, req *habit.UpdateHabitRequest) (*habit.Habit, error) {
	h, err := s.store.Habits().Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(h); err != nil {
		return nil, err
	}
	if err := s.store.Habits().Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HabitService) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.store.Habits().Delete(ctx, userID, id)
}

// RecordProgress counts one completion of the habit and awards its XP.
func (s *HabitService) RecordProgress(ctx context.Context, userID, id string) (*HabitProgress, error) {
	h, err := s.store.Habits().RecordProgress(ctx, userID, id, s.progress.Now())
	if err != nil {
		return nil, err
	}
	res, err := s.progress.Apply(ctx, userID, Activity{Source: progression.SourceHabit, XP: progression.HabitReward(h)})
	if err != nil {
		return nil, fmt.Errorf("failed to apply habit progress: %w", err)
	}
	return &HabitProgress{Habit: h, Progress: res}, nil
}
