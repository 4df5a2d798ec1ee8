package handlers

import (
	"context"
	"errors"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
)

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) ListActive(ctx context.Context) ([]*models.SubjectTemplate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.SubjectTemplate), args.Error(1)
}

func (m *MockTemplateService) GetByCode(ctx context.Context, code string) (*models.SubjectTemplate, error) {
	args := m.Called(ctx, code)
	t, _ := args.Get(0).(*models.SubjectTemplate)
	return t, args.Error(1)
}

type MockTestService struct {
	mock.Mock
}

func (m *MockTestService) Create(ctx context.Context, req *services.CreateTestRequest, teacherID string) (*services.TestResponse, error) {
	args := m.Called(ctx, req, teacherID)
	r, _ := args.Get(0).(*services.TestResponse)
	return r, args.Error(1)
}

func (m *MockTestService) GetByID(ctx context.Context, id uint, teacherID string) (*services.TestResponse, error) {
	args := m.Called(ctx, id, teacherID)
	r, _ := args.Get(0).(*services.TestResponse)
	return r, args.Error(1)
}

func (m *MockTestService) ListByTeacher(ctx context.Context, teacherID string, filters repositories.TestFilters) ([]*services.TestResponse, int64, error) {
	args := m.Called(ctx, teacherID, filters)
	r, _ := args.Get(0).([]*services.TestResponse)
	return r, args.Get(1).(int64), args.Error(2)
}

func (m *MockTestService) SaveKeySection(ctx context.Context, testID uint, section grading.SectionCode, req *services.SectionInputRequest, teacherID string) (*services.ProgressResponse, error) {
	args := m.Called(ctx, testID, section, req, teacherID)
	r, _ := args.Get(0).(*services.ProgressResponse)
	return r, args.Error(1)
}

func (m *MockTestService) GetKeySummary(ctx context.Context, testID uint, teacherID string) (*services.ProgressResponse, error) {
	args := m.Called(ctx, testID, teacherID)
	r, _ := args.Get(0).(*services.ProgressResponse)
	return r, args.Error(1)
}

func (m *MockTestService) Publish(ctx context.Context, testID uint, teacherID string) (*services.TestResponse, error) {
	args := m.Called(ctx, testID, teacherID)
	r, _ := args.Get(0).(*services.TestResponse)
	return r, args.Error(1)
}

func (m *MockTestService) Close(ctx context.Context, testID uint, teacherID string) (*services.TestResponse, error) {
	args := m.Called(ctx, testID, teacherID)
	r, _ := args.Get(0).(*services.TestResponse)
	return r, args.Error(1)
}

func (m *MockTestService) UpdateMaterial(ctx context.Context, testID uint, req *services.UpdateMaterialRequest, teacherID string) (*services.TestResponse, error) {
	args := m.Called(ctx, testID, req, teacherID)
	r, _ := args.Get(0).(*services.TestResponse)
	return r, args.Error(1)
}

func (m *MockTestService) GetByAccessCode(ctx context.Context, code string) (*models.Test, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*models.Test)
	return r, args.Error(1)
}

type MockAttemptService struct {
	mock.Mock
}

func (m *MockAttemptService) Start(ctx context.Context, req *services.StartAttemptRequest, studentID string) (*services.AttemptResponse, error) {
	args := m.Called(ctx, req, studentID)
	r, _ := args.Get(0).(*services.AttemptResponse)
	return r, args.Error(1)
}

func (m *MockAttemptService) SubmitSection(ctx context.Context, attemptID uint, section grading.SectionCode, req *services.SectionInputRequest, studentID string) (*services.ProgressResponse, error) {
	args := m.Called(ctx, attemptID, section, req, studentID)
	r, _ := args.Get(0).(*services.ProgressResponse)
	return r, args.Error(1)
}

func (m *MockAttemptService) GetProgress(ctx context.Context, attemptID uint, studentID string) (*services.ProgressResponse, error) {
	args := m.Called(ctx, attemptID, studentID)
	r, _ := args.Get(0).(*services.ProgressResponse)
	return r, args.Error(1)
}

func (m *MockAttemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*services.SubmitResultResponse, error) {
	args := m.Called(ctx, attemptID, studentID)
	r, _ := args.Get(0).(*services.SubmitResultResponse)
	return r, args.Error(1)
}

func (m *MockAttemptService) GetByID(ctx context.Context, attemptID uint, studentID string) (*services.AttemptResponse, error) {
	args := m.Called(ctx, attemptID, studentID)
	r, _ := args.Get(0).(*services.AttemptResponse)
	return r, args.Error(1)
}

func (m *MockAttemptService) ListByStudent(ctx context.Context, studentID string, limit int) ([]*services.AttemptSummary, error) {
	args := m.Called(ctx, studentID, limit)
	r, _ := args.Get(0).([]*services.AttemptSummary)
	return r, args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportTestResults(ctx context.Context, testID uint, teacherID string) ([]byte, string, error) {
	args := m.Called(ctx, testID, teacherID)
	data, _ := args.Get(0).([]byte)
	return data, args.String(1), args.Error(2)
}

// stubTokens maps bearer tokens onto Casdoor users.
type stubTokens map[string]casdoorsdk.User

func (s stubTokens) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	user, ok := s[token]
	if !ok {
		return nil, errors.New("token is invalid")
	}
	return &casdoorsdk.Claims{User: user}, nil
}
