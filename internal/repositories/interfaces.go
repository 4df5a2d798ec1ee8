package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
)

// Repository groups the per-entity repositories. Every method takes an
// optional transaction; nil means the default connection.
type Repository interface {
	Template() TemplateRepository
	Test() TestRepository
	AnswerKey() AnswerKeyRepository
	Attempt() AttemptRepository
	AttemptAnswer() AttemptAnswerRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
}

// ErrConflict is returned when a conditional write matched no row.
var ErrConflict = errors.New("record changed concurrently")

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	Status    *models.TestStatus `json:"status"`
	TeacherID *string            `json:"teacher_id"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	TestID    *uint                 `json:"test_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "started_at", "submitted_at", "score_total"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

type AttemptStats struct {
	TotalAttempts     int                          `json:"total_attempts"`
	SubmittedAttempts int                          `json:"submitted_attempts"`
	StatusBreakdown   map[models.AttemptStatus]int `json:"status_breakdown"`
	AverageScore      float64                      `json:"average_score"`
	MaxScore          int                          `json:"max_score"`
}
