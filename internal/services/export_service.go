package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/answer-scoring-service/internal/summary"
)

const (
	resultsSheet   = "Results"
	summarySheet   = "Summary"
	exportPageSize = 100
)

var resultHeaders = []string{
	"Student", "Status", "Started", "Submitted", "Y1", "Y2", "O", "Total", "Incorrect Items",
}

type exportService struct {
	repo   repositories.Repository
	logger *ServiceLogger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: NewServiceLogger(logger, "export"),
	}
}

func (s *exportService) ExportTestResults(ctx context.Context, testID uint, teacherID string) (data []byte, name string, err error) {
	op := s.logger.WithOperation(ctx, "export_results", teacherID)
	defer func() { op.LogResult(testID, "test", err) }()

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrTestNotFound
		}
		return nil, "", fmt.Errorf("failed to get test: %w", err)
	}
	if !test.IsOwner(teacherID) {
		return nil, "", NewPermissionError(teacherID, testID, "test", "export", "not owned by teacher")
	}

	attempts, err := s.allAttempts(ctx, testID)
	if err != nil {
		return nil, "", err
	}
	stats, err := s.repo.Attempt().GetTestAttemptStats(ctx, nil, testID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get attempt stats: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes Results so it opens first.
	if err = f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	for i, header := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for rowIndex, attempt := range attempts {
		for colIndex, value := range resultRow(attempt) {
			if value == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	if _, err = f.NewSheet(summarySheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	for rowIndex, row := range summaryRows(test, stats) {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", rowIndex+1), row[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", rowIndex+1), row[1])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), fmt.Sprintf("test-%d-results.xlsx", testID), nil
}

func (s *exportService) allAttempts(ctx context.Context, testID uint) ([]*models.Attempt, error) {
	var all []*models.Attempt
	for offset := 0; ; offset += exportPageSize {
		page, err := s.repo.Attempt().GetByTest(ctx, nil, testID, repositories.AttemptFilters{
			Limit:     exportPageSize,
			Offset:    offset,
			SortBy:    "started_at",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get attempts: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}

func resultRow(a *models.Attempt) []interface{} {
	row := []interface{}{
		a.StudentID,
		string(a.Status),
		a.StartedAt.UTC().Format(time.RFC3339),
		"", "", "", "", "", "",
	}
	if a.SubmittedAt != nil {
		row[3] = a.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if result, ok := a.ScoreResult(); ok {
		row[4] = result.PerSection.SingleChoice
		row[5] = result.PerSection.MultiChoice
		row[6] = result.PerSection.Open
		row[7] = result.Total
		row[8] = summary.FormatIncorrect(result.AllIncorrect(), 0)
	}
	return row
}

func summaryRows(test *models.Test, stats *repositories.AttemptStats) [][2]interface{} {
	return [][2]interface{}{
		{"Test", test.Title},
		{"Access Code", test.AccessCode},
		{"Attempts", stats.TotalAttempts},
		{"Submitted", stats.SubmittedAttempts},
		{"In Progress", stats.StatusBreakdown[models.AttemptStarted]},
		{"Expired", stats.StatusBreakdown[models.AttemptExpired]},
		{"Average Score", decimal.NewFromFloat(stats.AverageScore).Round(2).InexactFloat64()},
		{"Highest Score", stats.MaxScore},
	}
}
