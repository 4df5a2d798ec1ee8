package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type TemplateService interface {
	ListActive(ctx context.Context) ([]*models.SubjectTemplate, error)
	GetByCode(ctx context.Context, code string) (*models.SubjectTemplate, error)
}

type TestService interface {
	Create(ctx context.Context, req *CreateTestRequest, teacherID string) (*TestResponse, error)
	GetByID(ctx context.Context, id uint, teacherID string) (*TestResponse, error)
	ListByTeacher(ctx context.Context, teacherID string, filters repositories.TestFilters) ([]*TestResponse, int64, error)

	// Answer key authoring
	SaveKeySection(ctx context.Context, testID uint, section grading.SectionCode, req *SectionInputRequest, teacherID string) (*ProgressResponse, error)
	GetKeySummary(ctx context.Context, testID uint, teacherID string) (*ProgressResponse, error)

	// Lifecycle
	Publish(ctx context.Context, testID uint, teacherID string) (*TestResponse, error)
	Close(ctx context.Context, testID uint, teacherID string) (*TestResponse, error)

	// UpdateMaterial attaches or clears the reading material of a draft test.
	UpdateMaterial(ctx context.Context, testID uint, req *UpdateMaterialRequest, teacherID string) (*TestResponse, error)

	GetByAccessCode(ctx context.Context, code string) (*models.Test, error)
}

type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	SubmitSection(ctx context.Context, attemptID uint, section grading.SectionCode, req *SectionInputRequest, studentID string) (*ProgressResponse, error)
	GetProgress(ctx context.Context, attemptID uint, studentID string) (*ProgressResponse, error)
	Submit(ctx context.Context, attemptID uint, studentID string) (*SubmitResultResponse, error)

	GetByID(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*AttemptSummary, error)
}

type ExportService interface {
	// ExportTestResults returns the xlsx workbook and a file name.
	ExportTestResults(ctx context.Context, testID uint, teacherID string) ([]byte, string, error)
}

// ===== REQUESTS =====

type CreateTestRequest struct {
	Title            string `json:"title" validate:"required,min=1,max=200"`
	TemplateCode     string `json:"template_code" validate:"omitempty,max=50"`
	TimeLimitMinutes *int   `json:"time_limit_minutes" validate:"omitempty,min=1,max=600"`
}

// UpdateMaterialRequest attaches a file to a test. An empty file_id clears
// the material.
type UpdateMaterialRequest struct {
	FileID   string `json:"file_id" validate:"omitempty,max=255"`
	FileType string `json:"file_type" validate:"required_with=FileID,omitempty,oneof=photo document"`
	Caption  string `json:"caption" validate:"omitempty,max=255"`
}

// SectionInputRequest carries the free-text answers for one section.
type SectionInputRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type StartAttemptRequest struct {
	AccessCode string `json:"access_code" validate:"required,access_code"`
}

// ===== RESPONSES =====

type TestResponse struct {
	ID               uint                 `json:"id"`
	Title            string               `json:"title"`
	SubjectCode      string               `json:"subject_code"`
	Status           models.TestStatus    `json:"status"`
	AccessCode       string               `json:"access_code"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	MaxScore         int                  `json:"max_score"`
	AttemptCount     int                  `json:"attempt_count"`
	PublishedAt      *time.Time           `json:"published_at,omitempty"`
	ClosedAt         *time.Time           `json:"closed_at,omitempty"`
	Material         *models.TestMaterial `json:"material,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// ProgressResponse describes a sheet being filled in, either an answer key
// or a student's draft.
type ProgressResponse struct {
	Stage       int                 `json:"stage"`
	Complete    bool                `json:"complete"`
	NextSection string              `json:"next_section,omitempty"`
	Sheet       grading.AnswerSheet `json:"sheet"`
	Summary     string              `json:"summary"`
}

type AttemptResponse struct {
	ID          uint                 `json:"id"`
	TestID      uint                 `json:"test_id"`
	TestTitle   string               `json:"test_title"`
	Status      models.AttemptStatus `json:"status"`
	StartedAt   time.Time            `json:"started_at"`
	Deadline    time.Time            `json:"deadline"`
	SubmittedAt *time.Time           `json:"submitted_at,omitempty"`
	Resumed     bool                 `json:"resumed,omitempty"`
	Material    *models.TestMaterial `json:"material,omitempty"`
	Score       *grading.ScoreResult `json:"score,omitempty"`
	MaxScore    int                  `json:"max_score"`
}

type SubmitResultResponse struct {
	AttemptID      uint                `json:"attempt_id"`
	Score          grading.ScoreResult `json:"score"`
	MaxScore       int                 `json:"max_score"`
	Feedback       string              `json:"feedback"`
	IncorrectItems []int               `json:"incorrect_items"`
	IncorrectText  string              `json:"incorrect_text"`
}

type AttemptSummary struct {
	AttemptID   uint                 `json:"attempt_id"`
	TestID      uint                 `json:"test_id"`
	TestTitle   string               `json:"test_title"`
	Status      models.AttemptStatus `json:"status"`
	ScoreTotal  *int                 `json:"score_total,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	SubmittedAt *time.Time           `json:"submitted_at,omitempty"`
}
