package habit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

func TestBuildDefaults(t *testing.T) {
	h, err := (&CreateHabitRequest{Title: "Meditate"}).Build("u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultXPReward, h.XPReward)
	assert.Equal(t, task.FrequencyDaily, h.Frequency)
	assert.Equal(t, 0, h.Progress)
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := (&CreateHabitRequest{Title: ""}).Build("u1")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = (&CreateHabitRequest{Title: "x", Frequency: "yearly"}).Build("u1")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUpdateApplyIsAllOrNothing(t *testing.T) {
	h := &Habit{Title: "Run", XPReward: 30, Frequency: task.FrequencyDaily}
	empty := ""
	weekly := "weekly"

	err := (&UpdateHabitRequest{Title: &empty, Frequency: &weekly}).Apply(h)
	assert.Error(t, err)
	assert.Equal(t, "Run", h.Title)
	assert.Equal(t, task.FrequencyDaily, h.Frequency)
}
