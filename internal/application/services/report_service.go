package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

// ReportService builds per-month activity reports
type ReportService struct {
	todoRepo ports.TodoRepository
	location *time.Location
}

// NewReportService creates a report service whose months start at midnight in loc
func NewReportService(todoRepo ports.TodoRepository, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{todoRepo: todoRepo, location: loc}
}

// Monthly reports todos created in the month and, separately, todos whose
// last update in the month left them completed.
func (s *ReportService) Monthly(ctx context.Context, userID uuid.UUID, req ports.MonthlyReportRequest) (*ports.MonthlyReport, error) {
	if req.Month < 1 || req.Month > 12 || req.Year < 2020 || req.Year > 2100 {
		return nil, entities.ErrInvalidPeriod
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 1, 0)

	created, err := s.todoRepo.List(ctx, ports.TodoFilter{
		UserID:      userID,
		CreatedFrom: &start,
		CreatedTo:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load created todos: %w", err)
	}

	done := true
	completed, err := s.todoRepo.List(ctx, ports.TodoFilter{
		UserID:      userID,
		Completed:   &done,
		UpdatedFrom: &start,
		UpdatedTo:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load completed todos: %w", err)
	}

	report := &ports.MonthlyReport{
		Period: ports.ReportPeriod{
			Month:     req.Month,
			Year:      req.Year,
			StartDate: start,
			EndDate:   end.Add(-time.Millisecond),
		},
		ByCategory: make(map[string]int),
	}

	for _, todo := range created {
		report.ByPriority.Add(todo.Priority)

		name := entities.UncategorizedLabel
		if todo.Category != nil {
			name = todo.Category.Name
		}
		report.ByCategory[name]++
	}

	totalCreated, totalCompleted := len(created), len(completed)
	report.Summary = ports.ReportSummary{
		TotalCreated:   totalCreated,
		TotalCompleted: totalCompleted,
		CompletionRate: entities.CompletionRate(totalCompleted, totalCreated, 2),
		Pending:        totalCreated - totalCompleted,
	}

	return report, nil
}
