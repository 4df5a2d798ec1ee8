package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
)

// TemplateRepository reads subject templates.
type TemplateRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SubjectTemplate, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.SubjectTemplate, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*models.SubjectTemplate, error)
	Upsert(ctx context.Context, tx *gorm.DB, template *models.SubjectTemplate) error
}

// TestRepository interface for test operations
type TestRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDWithTemplate(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByAccessCode(ctx context.Context, tx *gorm.DB, code string) (*models.Test, error)
	Update(ctx context.Context, tx *gorm.DB, test *models.Test) error

	// Query operations
	GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters TestFilters) ([]*models.Test, int64, error)
	ExistsByAccessCode(ctx context.Context, tx *gorm.DB, code string) (bool, error)
}

// AnswerKeyRepository stores the per-section keys of a test.
type AnswerKeyRepository interface {
	// Upsert writes the section key, replacing any previous key of that section.
	Upsert(ctx context.Context, tx *gorm.DB, key *models.TestAnswerKey) error
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.TestAnswerKey, error)
}
