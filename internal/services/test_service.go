package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/answer-scoring-service/internal/summary"
	"github.com/SAP-F-2025/answer-scoring-service/internal/validator"
)

const accessCodeAttempts = 5

type testService struct {
	repo      repositories.Repository
	templates TemplateService
	notifier  NotificationEventService
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewTestService(
	repo repositories.Repository,
	templates TemplateService,
	notifier NotificationEventService,
	logger *slog.Logger,
	validator *validator.Validator,
) TestService {
	return &testService{
		repo:      repo,
		templates: templates,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "test"),
		validator: validator,
		now:       time.Now,
	}
}

// ===== CORE TEST OPERATIONS =====

func (s *testService) Create(ctx context.Context, req *CreateTestRequest, teacherID string) (resp *TestResponse, err error) {
	op := s.logger.WithOperation(ctx, "create_test", teacherID)
	defer func() { op.LogResult(testIDOf(resp), "test", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	template, err := s.templates.GetByCode(ctx, req.TemplateCode)
	if err != nil {
		return nil, err
	}

	timeLimit := template.Structure.Data().TimeLimit()
	if req.TimeLimitMinutes != nil {
		timeLimit = *req.TimeLimitMinutes
	}

	code, err := s.generateAccessCode(ctx, template.SubjectCode)
	if err != nil {
		return nil, err
	}

	test := &models.Test{
		TeacherID:         teacherID,
		SubjectTemplateID: template.ID,
		Title:             strings.TrimSpace(req.Title),
		Status:            models.TestStatusDraft,
		TimeLimitMinutes:  timeLimit,
		AccessCode:        code,
	}
	if err = s.repo.Test().Create(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}
	test.Template = *template

	return buildTestResponse(test), nil
}

func (s *testService) GetByID(ctx context.Context, id uint, teacherID string) (*TestResponse, error) {
	test, err := s.getOwnedTest(ctx, id, teacherID, "view")
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Attempt().CountByTests(ctx, nil, []uint{test.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	test.AttemptCount = counts[test.ID]

	return buildTestResponse(test), nil
}

func (s *testService) ListByTeacher(ctx context.Context, teacherID string, filters repositories.TestFilters) ([]*TestResponse, int64, error) {
	tests, total, err := s.repo.Test().GetByTeacher(ctx, nil, teacherID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tests: %w", err)
	}

	ids := make([]uint, len(tests))
	for i, t := range tests {
		ids[i] = t.ID
	}
	counts, err := s.repo.Attempt().CountByTests(ctx, nil, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	responses := make([]*TestResponse, len(tests))
	for i, t := range tests {
		t.AttemptCount = counts[t.ID]
		responses[i] = buildTestResponse(t)
	}
	return responses, total, nil
}

func (s *testService) GetByAccessCode(ctx context.Context, code string) (*models.Test, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	test, err := s.repo.Test().GetByAccessCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return test, nil
}

// ===== ANSWER KEY =====

// SaveKeySection parses the section text with the test's layout and stores
// it as that section's key, replacing any earlier key.
func (s *testService) SaveKeySection(ctx context.Context, testID uint, section grading.SectionCode, req *SectionInputRequest, teacherID string) (resp *ProgressResponse, err error) {
	op := s.logger.WithOperation(ctx, "save_key_section", teacherID)
	defer func() { op.LogResult(testID, "answer_key", err) }()

	if !section.Valid() {
		return nil, ErrInvalidSection
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.getOwnedTest(ctx, testID, teacherID, "edit")
	if err != nil {
		return nil, err
	}
	if test.Status != models.TestStatusDraft {
		return nil, ErrTestNotEditable
	}

	layout := test.Template.Layout()
	patch, err := grading.ParseSection(section, req.Text, layout)
	if err != nil {
		return nil, err
	}

	payload, err := models.SectionPayload(patch, section)
	if err != nil {
		return nil, err
	}
	if err = s.repo.AnswerKey().Upsert(ctx, nil, &models.TestAnswerKey{
		TestID:      test.ID,
		SectionCode: string(section),
		Payload:     payload,
	}); err != nil {
		return nil, fmt.Errorf("failed to save answer key: %w", err)
	}

	resp, err = s.keyProgress(ctx, test)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyAnswerKeyUpdated(ctx, test, section, resp.Stage)
	return resp, nil
}

func (s *testService) GetKeySummary(ctx context.Context, testID uint, teacherID string) (*ProgressResponse, error) {
	test, err := s.getOwnedTest(ctx, testID, teacherID, "view")
	if err != nil {
		return nil, err
	}
	return s.keyProgress(ctx, test)
}

// ===== LIFECYCLE =====

func (s *testService) Publish(ctx context.Context, testID uint, teacherID string) (resp *TestResponse, err error) {
	op := s.logger.WithOperation(ctx, "publish_test", teacherID)
	defer func() { op.LogResult(testID, "test", err) }()

	test, err := s.getOwnedTest(ctx, testID, teacherID, "publish")
	if err != nil {
		return nil, err
	}
	if test.Status != models.TestStatusDraft {
		return nil, ErrTestNotEditable
	}

	sheet, err := s.loadKeySheet(ctx, nil, test.ID)
	if err != nil {
		return nil, err
	}
	if incomplete := test.Template.Layout().IncompleteSections(sheet); len(incomplete) > 0 {
		return nil, NewBusinessRuleError("answer_key_complete",
			"every section of the answer key must be complete before publishing",
			map[string]interface{}{"incomplete_sections": incomplete})
	}

	now := s.now().UTC()
	test.Status = models.TestStatusPublished
	test.PublishedAt = &now
	if err = s.repo.Test().Update(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to publish test: %w", err)
	}

	s.notifier.NotifyTestPublished(ctx, test)
	return buildTestResponse(test), nil
}

func (s *testService) Close(ctx context.Context, testID uint, teacherID string) (resp *TestResponse, err error) {
	op := s.logger.WithOperation(ctx, "close_test", teacherID)
	defer func() { op.LogResult(testID, "test", err) }()

	test, err := s.getOwnedTest(ctx, testID, teacherID, "close")
	if err != nil {
		return nil, err
	}
	if test.Status != models.TestStatusPublished {
		return nil, ErrTestNotPublished
	}

	now := s.now().UTC()
	test.Status = models.TestStatusClosed
	test.ClosedAt = &now
	if err = s.repo.Test().Update(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to close test: %w", err)
	}

	counts, err := s.repo.Attempt().CountByTests(ctx, nil, []uint{test.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	test.AttemptCount = counts[test.ID]

	s.notifier.NotifyTestClosed(ctx, test, test.AttemptCount)
	return buildTestResponse(test), nil
}

// ===== MATERIAL =====

func (s *testService) UpdateMaterial(ctx context.Context, testID uint, req *UpdateMaterialRequest, teacherID string) (resp *TestResponse, err error) {
	op := s.logger.WithOperation(ctx, "update_material", teacherID)
	defer func() { op.LogResult(testID, "test", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.getOwnedTest(ctx, testID, teacherID, "edit")
	if err != nil {
		return nil, err
	}
	if test.Status != models.TestStatusDraft {
		return nil, ErrTestNotEditable
	}

	fileID := strings.TrimSpace(req.FileID)
	if fileID == "" {
		test.SetMaterial(nil)
	} else {
		test.SetMaterial(&models.TestMaterial{
			FileID:   fileID,
			FileType: models.MaterialType(req.FileType),
			Caption:  strings.TrimSpace(req.Caption),
		})
	}
	if err = s.repo.Test().Update(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	return buildTestResponse(test), nil
}

// ===== HELPERS =====

func (s *testService) getOwnedTest(ctx context.Context, id uint, teacherID, action string) (*models.Test, error) {
	test, err := s.repo.Test().GetByIDWithTemplate(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if !test.IsOwner(teacherID) {
		return nil, NewPermissionError(teacherID, id, "test", action, "not owned by teacher")
	}
	return test, nil
}

func (s *testService) loadKeySheet(ctx context.Context, tx *gorm.DB, testID uint) (grading.AnswerSheet, error) {
	keys, err := s.repo.AnswerKey().GetByTest(ctx, tx, testID)
	if err != nil {
		return grading.AnswerSheet{}, fmt.Errorf("failed to get answer keys: %w", err)
	}
	return models.AnswerKeySheet(keys)
}

func (s *testService) keyProgress(ctx context.Context, test *models.Test) (*ProgressResponse, error) {
	sheet, err := s.loadKeySheet(ctx, nil, test.ID)
	if err != nil {
		return nil, err
	}
	return buildProgress(sheet, test.Template.Layout(),
		"Answer key: "+test.Title,
		"Access code: "+test.AccessCode), nil
}

// generateAccessCode returns an unused code of the form SUBJECT-XXXX.
func (s *testService) generateAccessCode(ctx context.Context, subjectCode string) (string, error) {
	prefix := strings.ToUpper(subjectCode)
	for i := 0; i < accessCodeAttempts; i++ {
		buf := make([]byte, 2)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate access code: %w", err)
		}
		code := prefix + "-" + strings.ToUpper(hex.EncodeToString(buf))

		exists, err := s.repo.Test().ExistsByAccessCode(ctx, nil, code)
		if err != nil {
			return "", fmt.Errorf("failed to check access code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrAccessCodeExhausted
}

func buildTestResponse(test *models.Test) *TestResponse {
	return &TestResponse{
		ID:               test.ID,
		Title:            test.Title,
		SubjectCode:      test.Template.SubjectCode,
		Status:           test.Status,
		AccessCode:       test.AccessCode,
		TimeLimitMinutes: test.TimeLimitMinutes,
		MaxScore:         test.Template.Layout().MaxScore(),
		AttemptCount:     test.AttemptCount,
		PublishedAt:      test.PublishedAt,
		ClosedAt:         test.ClosedAt,
		Material:         test.Material(),
		CreatedAt:        test.CreatedAt,
	}
}

// buildProgress renders the progress card for a key or a draft.
func buildProgress(sheet grading.AnswerSheet, layout grading.Layout, title, subtitle string) *ProgressResponse {
	stage := grading.Stage(sheet, layout)
	resp := &ProgressResponse{
		Stage:    stage,
		Complete: stage == grading.StageComplete,
		Sheet:    sheet,
		Summary: summary.Render(summary.Card{
			Title:       title,
			Subtitle:    subtitle,
			Sheet:       sheet,
			Layout:      layout,
			Instruction: summary.Instruction(stage, layout),
		}),
	}
	if next, ok := grading.NextSection(stage); ok {
		resp.NextSection = string(next)
	}
	return resp
}

func testIDOf(resp *TestResponse) uint {
	if resp == nil {
		return 0
	}
	return resp.ID
}
