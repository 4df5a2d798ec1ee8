package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
)

// AttemptRepository interface for attempt operations
type AttemptRepository interface {
	// Basic operations
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	GetByTestAndStudent(ctx context.Context, tx *gorm.DB, testID uint, studentID string) (*models.Attempt, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters AttemptFilters) ([]*models.Attempt, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.AttemptStatus) error
	// CompleteAttempt stores the score of a started attempt. It returns
	// ErrConflict when the attempt is no longer in the started state.
	CompleteAttempt(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error

	// Statistics
	CountByTests(ctx context.Context, tx *gorm.DB, testIDs []uint) (map[uint]int, error)
	GetTestAttemptStats(ctx context.Context, tx *gorm.DB, testID uint) (*AttemptStats, error)
}

// AttemptAnswerRepository interface for submitted answer operations
type AttemptAnswerRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error)
}
