package services

import (
	"context"
	"fmt"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
)

const scoreHistoryLimit = 50

type GameService struct {
	store    storage.Store
	progress *ProgressionService
}

type GameResult struct {
	Score    *game.Score     `json:"score"`
	Progress *ProgressResult `json:"progress"`
}

func NewGameService(st storage.Store, progress *ProgressionService) *GameService {
	return &GameService{store: st, progress: progress}
}

// SubmitScore records a mini-game result. The XP a single game can award is capped.
func (s *GameService) SubmitScore(ctx context.Context, userID string, req *game.SubmitScoreRequest) (*GameResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	xp := progression.GameReward(req.XP)
	score := &game.Score{
		UserID:    userID,
		Game:      req.Game,
		Score:     req.Score,
		XPAwarded: xp,
	}
	if err := s.store.GameScores().Create(ctx, score); err != nil {
		return nil, err
	}

	res, err := s.progress.Apply(ctx, userID, Activity{Source: progression.SourceGame, XP: xp})
	if err != nil {
		return nil, fmt.Errorf("failed to apply game progress: %w", err)
	}
	return &GameResult{Score: score, Progress: res}, nil
}

func (s *GameService) ListScores(ctx context.Context, userID string) ([]*game.Score, error) {
	return s.store.GameScores().ListByUser(ctx, userID, scoreHistoryLimit)
}
