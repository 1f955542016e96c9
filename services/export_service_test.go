package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/logger"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

func TestExportTasks(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t)
	f.newTask(t, u.ID, task.CreateTaskRequest{Title: "Write report", DueDate: strPtr("2023-05-16")})
	done := f.newTask(t, u.ID, task.CreateTaskRequest{Title: "Stand-up", DueDate: strPtr("2023-05-15")})
	_, err := f.tasks.CompleteTask(f.ctx, u.ID, done.ID)
	require.NoError(t, err)

	other := f.newUser(t)
	f.newTask(t, other.ID, task.CreateTaskRequest{Title: "Not mine"})

	var buf bytes.Buffer
	n, err := NewExportService(f.store, nil, logger.Discard()).ExportTasks(f.ctx, u.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, "Stand-up", rows[1][0])
	assert.Equal(t, "2023-05-15", rows[1][2])
	assert.Equal(t, "TRUE", rows[1][3])
	assert.Equal(t, "2023-05-15 10:00:00", rows[1][4])
	assert.Equal(t, "Write report", rows[2][0])
	assert.Equal(t, "FALSE", rows[2][3])
}
