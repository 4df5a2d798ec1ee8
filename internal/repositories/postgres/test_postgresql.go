package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
)

type TemplatePostgreSQL struct {
	db *gorm.DB
}

func NewTemplatePostgreSQL(db *gorm.DB) repositories.TemplateRepository {
	return &TemplatePostgreSQL{db: db}
}

func (r *TemplatePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SubjectTemplate, error) {
	var tpl models.SubjectTemplate
	if err := getDB(r.db, tx).WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplatePostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.SubjectTemplate, error) {
	var tpl models.SubjectTemplate
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("subject_code = ? AND is_active = ?", code, true).
		First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplatePostgreSQL) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.SubjectTemplate, error) {
	var templates []*models.SubjectTemplate
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("is_active = ?", true).
		Order("subject_code").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplatePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, template *models.SubjectTemplate) error {
	return getDB(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"subject_name", "description", "structure", "is_active", "updated_at"}),
	}).Create(template).Error
}

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (r *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	return getDB(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(test).Error
}

func (r *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	var test models.Test
	if err := getDB(r.db, tx).WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestPostgreSQL) GetByIDWithTemplate(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	var test models.Test
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Template").
		First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestPostgreSQL) GetByAccessCode(ctx context.Context, tx *gorm.DB, code string) (*models.Test, error) {
	var test models.Test
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Template").
		Where("access_code = ?", code).
		First(&test).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	return getDB(r.db, tx).WithContext(ctx).Omit(clause.Associations).Save(test).Error
}

func (r *TestPostgreSQL) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	var tests []*models.Test
	var total int64

	query := getDB(r.db, tx).WithContext(ctx).Model(&models.Test{}).Where("teacher_id = ?", teacherID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset,
		map[string]bool{"created_at": true}, "created_at")
	if err := query.Preload("Template").Find(&tests).Error; err != nil {
		return nil, 0, err
	}
	return tests, total, nil
}

func (r *TestPostgreSQL) ExistsByAccessCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var count int64
	if err := getDB(r.db, tx).WithContext(ctx).
		Model(&models.Test{}).
		Unscoped().
		Where("access_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type AnswerKeyPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerKeyPostgreSQL(db *gorm.DB) repositories.AnswerKeyRepository {
	return &AnswerKeyPostgreSQL{db: db}
}

func (r *AnswerKeyPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, key *models.TestAnswerKey) error {
	return getDB(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "test_id"}, {Name: "section_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(key).Error
}

func (r *AnswerKeyPostgreSQL) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.TestAnswerKey, error) {
	var keys []*models.TestAnswerKey
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("test_id = ?", testID).
		Order("section_code").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
