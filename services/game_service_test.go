package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
)

func TestSubmitScoreCapsXP(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	res, err := f.games.SubmitScore(f.ctx, u.ID, &game.SubmitScoreRequest{Game: "memory", Score: 900, XP: 50})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Score.XPAwarded)
	assert.Equal(t, []string{"Player One"}, names(res.Progress.Unlocked))
	assert.Equal(t, 20, res.Progress.XP)

	res, err = f.games.SubmitScore(f.ctx, u.ID, &game.SubmitScoreRequest{Game: "memory", Score: 10, XP: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Progress.XPAwarded)

	scores, err := f.games.ListScores(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestSubmitScoreValidation(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)

	_, err := f.games.SubmitScore(f.ctx, u.ID, &game.SubmitScoreRequest{Game: " ", Score: 1})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.games.SubmitScore(f.ctx, u.ID, &game.SubmitScoreRequest{Game: "quiz", Score: 1, XP: -4})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
