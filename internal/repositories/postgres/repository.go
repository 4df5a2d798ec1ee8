package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
)

type repository struct {
	db            *gorm.DB
	template      repositories.TemplateRepository
	test          repositories.TestRepository
	answerKey     repositories.AnswerKeyRepository
	attempt       repositories.AttemptRepository
	attemptAnswer repositories.AttemptAnswerRepository
}

// NewRepository builds the PostgreSQL-backed repository set.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:            db,
		template:      NewTemplatePostgreSQL(db),
		test:          NewTestPostgreSQL(db),
		answerKey:     NewAnswerKeyPostgreSQL(db),
		attempt:       NewAttemptPostgreSQL(db),
		attemptAnswer: NewAttemptAnswerPostgreSQL(db),
	}
}

func (r *repository) Template() repositories.TemplateRepository           { return r.template }
func (r *repository) Test() repositories.TestRepository                   { return r.test }
func (r *repository) AnswerKey() repositories.AnswerKeyRepository         { return r.answerKey }
func (r *repository) Attempt() repositories.AttemptRepository             { return r.attempt }
func (r *repository) AttemptAnswer() repositories.AttemptAnswerRepository { return r.attemptAnswer }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates the schema and seeds the built-in subject templates.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.SubjectTemplate{},
		&models.Test{},
		&models.TestAnswerKey{},
		&models.Attempt{},
		&models.AttemptAnswer{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	seed := models.DefaultMathTemplate()
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"subject_name", "description", "structure", "is_active", "updated_at"}),
	}).Create(seed).Error; err != nil {
		return fmt.Errorf("failed to seed template %s: %w", seed.SubjectCode, err)
	}
	return nil
}
