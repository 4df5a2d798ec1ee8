package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-scoring-service/internal/cache"
	"github.com/SAP-F-2025/answer-scoring-service/internal/events"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/answer-scoring-service/internal/validator"
)

// MockTemplateRepository is a mock implementation of TemplateRepository
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SubjectTemplate, error) {
	args := m.Called(ctx, tx, id)
	t, _ := args.Get(0).(*models.SubjectTemplate)
	return t, args.Error(1)
}

func (m *MockTemplateRepository) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.SubjectTemplate, error) {
	args := m.Called(ctx, tx, code)
	t, _ := args.Get(0).(*models.SubjectTemplate)
	return t, args.Error(1)
}

func (m *MockTemplateRepository) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.SubjectTemplate, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).([]*models.SubjectTemplate), args.Error(1)
}

func (m *MockTemplateRepository) Upsert(ctx context.Context, tx *gorm.DB, template *models.SubjectTemplate) error {
	args := m.Called(ctx, tx, template)
	return args.Error(0)
}

// MockTestRepository is a mock implementation of TestRepository
type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	args := m.Called(ctx, tx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	args := m.Called(ctx, tx, id)
	t, _ := args.Get(0).(*models.Test)
	return t, args.Error(1)
}

func (m *MockTestRepository) GetByIDWithTemplate(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	args := m.Called(ctx, tx, id)
	t, _ := args.Get(0).(*models.Test)
	return t, args.Error(1)
}

func (m *MockTestRepository) GetByAccessCode(ctx context.Context, tx *gorm.DB, code string) (*models.Test, error) {
	args := m.Called(ctx, tx, code)
	t, _ := args.Get(0).(*models.Test)
	return t, args.Error(1)
}

func (m *MockTestRepository) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	args := m.Called(ctx, tx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	args := m.Called(ctx, tx, teacherID, filters)
	return args.Get(0).([]*models.Test), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRepository) ExistsByAccessCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	args := m.Called(ctx, tx, code)
	return args.Bool(0), args.Error(1)
}

// MockAnswerKeyRepository is a mock implementation of AnswerKeyRepository
type MockAnswerKeyRepository struct {
	mock.Mock
}

func (m *MockAnswerKeyRepository) Upsert(ctx context.Context, tx *gorm.DB, key *models.TestAnswerKey) error {
	args := m.Called(ctx, tx, key)
	return args.Error(0)
}

func (m *MockAnswerKeyRepository) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.TestAnswerKey, error) {
	args := m.Called(ctx, tx, testID)
	return args.Get(0).([]*models.TestAnswerKey), args.Error(1)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	args := m.Called(ctx, tx, id)
	a, _ := args.Get(0).(*models.Attempt)
	return a, args.Error(1)
}

func (m *MockAttemptRepository) GetByTestAndStudent(ctx context.Context, tx *gorm.DB, testID uint, studentID string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, testID, studentID)
	a, _ := args.Get(0).(*models.Attempt)
	return a, args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, tx, studentID, filters)
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.AttemptFilters) ([]*models.Attempt, error) {
	args := m.Called(ctx, tx, testID, filters)
	return args.Get(0).([]*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.AttemptStatus) error {
	args := m.Called(ctx, tx, id, from, to)
	return args.Error(0)
}

func (m *MockAttemptRepository) CompleteAttempt(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) CountByTests(ctx context.Context, tx *gorm.DB, testIDs []uint) (map[uint]int, error) {
	args := m.Called(ctx, tx, testIDs)
	return args.Get(0).(map[uint]int), args.Error(1)
}

func (m *MockAttemptRepository) GetTestAttemptStats(ctx context.Context, tx *gorm.DB, testID uint) (*repositories.AttemptStats, error) {
	args := m.Called(ctx, tx, testID)
	s, _ := args.Get(0).(*repositories.AttemptStats)
	return s, args.Error(1)
}

// MockAttemptAnswerRepository is a mock implementation of AttemptAnswerRepository
type MockAttemptAnswerRepository struct {
	mock.Mock
}

func (m *MockAttemptAnswerRepository) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error {
	args := m.Called(ctx, tx, answers)
	return args.Error(0)
}

func (m *MockAttemptAnswerRepository) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	args := m.Called(ctx, tx, attemptID)
	return args.Get(0).([]*models.AttemptAnswer), args.Error(1)
}

// MockRepository is a mock implementation of the main Repository interface
type MockRepository struct {
	templateRepo      *MockTemplateRepository
	testRepo          *MockTestRepository
	answerKeyRepo     *MockAnswerKeyRepository
	attemptRepo       *MockAttemptRepository
	attemptAnswerRepo *MockAttemptAnswerRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		templateRepo:      &MockTemplateRepository{},
		testRepo:          &MockTestRepository{},
		answerKeyRepo:     &MockAnswerKeyRepository{},
		attemptRepo:       &MockAttemptRepository{},
		attemptAnswerRepo: &MockAttemptAnswerRepository{},
	}
}

func (m *MockRepository) Template() repositories.TemplateRepository           { return m.templateRepo }
func (m *MockRepository) Test() repositories.TestRepository                   { return m.testRepo }
func (m *MockRepository) AnswerKey() repositories.AnswerKeyRepository         { return m.answerKeyRepo }
func (m *MockRepository) Attempt() repositories.AttemptRepository             { return m.attemptRepo }
func (m *MockRepository) AttemptAnswer() repositories.AttemptAnswerRepository { return m.attemptAnswerRepo }
func (m *MockRepository) Ping(ctx context.Context) error                      { return nil }

// WithTransaction runs fn without a real transaction.
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *MockRepository) AssertExpectations(t *testing.T) {
	m.templateRepo.AssertExpectations(t)
	m.testRepo.AssertExpectations(t)
	m.answerKeyRepo.AssertExpectations(t)
	m.attemptRepo.AssertExpectations(t)
	m.attemptAnswerRepo.AssertExpectations(t)
}

// ===== FIXTURES =====

type serviceFixture struct {
	repo      *MockRepository
	publisher *events.MockEventPublisher
	drafts    cache.DraftStore
	redis     *miniredis.Miniredis
	tests     *testService
	attempts  *attemptService
	export    ExportService
	now       time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)
	notifier := NewNotificationEventService(publisher, logger)
	v := validator.New()
	drafts := cache.NewDraftStore(cache.NewRedisCache(client, "test", logger))
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

	tests := NewTestService(repo, NewTemplateService(repo, logger), notifier, logger, v).(*testService)
	tests.now = func() time.Time { return now }
	attempts := NewAttemptService(repo, tests, drafts, time.Hour, notifier, logger, v).(*attemptService)
	attempts.now = func() time.Time { return now }

	return &serviceFixture{
		repo:      repo,
		publisher: publisher,
		drafts:    drafts,
		redis:     mr,
		tests:     tests,
		attempts:  attempts,
		export:    NewExportService(repo, logger),
		now:       now,
	}
}

func mathTemplate() *models.SubjectTemplate {
	tpl := models.DefaultMathTemplate()
	tpl.ID = 1
	return tpl
}

func newTest(id uint, teacherID string, status models.TestStatus) *models.Test {
	return &models.Test{
		ID:                id,
		TeacherID:         teacherID,
		SubjectTemplateID: 1,
		Title:             "Algebra mock exam",
		Status:            status,
		TimeLimitMinutes:  150,
		AccessCode:        "MATH-1A2B",
		Template:          *mathTemplate(),
	}
}
