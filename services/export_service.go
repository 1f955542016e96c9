package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

const exportSheet = "Tasks"

var exportColumns = []string{
	"Title", "Description", "Due Date", "Completed", "Completed At",
	"XP Reward", "Habit", "Recurring", "Frequency", "Recurring Until",
}

type ExportService struct {
	store  storage.Store
	loc    *time.Location
	logger *slog.Logger
}

func NewExportService(st storage.Store, loc *time.Location, logger *slog.Logger) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{store: st, loc: loc, logger: logger}
}

// ExportTasks writes every task of userID as an xlsx workbook to w and returns the row count.
func (s *ExportService) ExportTasks(ctx context.Context, userID string, w io.Writer) (int, error) {
	tasks, err := s.store.Tasks().List(ctx, userID, task.ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", slog.String("error", err.Error()))
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportColumns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range tasks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := s.row(t)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write task %s: %w", t.ID, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "B", 32); err != nil {
		return 0, err
	}
	if err := f.SetColWidth(exportSheet, "C", "J", 14); err != nil {
		return 0, err
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(tasks), nil
}

func (s *ExportService) row(t *task.Task) []any {
	row := []any{
		t.Title,
		t.Description,
		t.DueDateString,
		t.Completed,
		"",
		t.XPReward,
		t.IsHabit,
		t.IsRecurring,
		string(t.Frequency),
		"",
	}
	if t.CompletedAt != nil {
		row[4] = t.CompletedAt.In(s.loc).Format(time.DateTime)
	}
	if t.RecurringEndDate != nil {
		row[9] = task.DateString(*t.RecurringEndDate, s.loc)
	}
	return row
}
