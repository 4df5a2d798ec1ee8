package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-scoring-service/internal/cache"
	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/answer-scoring-service/internal/summary"
	"github.com/SAP-F-2025/answer-scoring-service/internal/validator"
)

const (
	defaultHistoryLimit = 10
	incorrectPreview    = 10
)

type attemptService struct {
	repo      repositories.Repository
	tests     TestService
	drafts    cache.DraftStore
	draftTTL  time.Duration
	notifier  NotificationEventService
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	tests TestService,
	drafts cache.DraftStore,
	draftTTL time.Duration,
	notifier NotificationEventService,
	logger *slog.Logger,
	validator *validator.Validator,
) AttemptService {
	return &attemptService{
		repo:      repo,
		tests:     tests,
		drafts:    drafts,
		draftTTL:  draftTTL,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "attempt"),
		validator: validator,
		now:       time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start opens an attempt on the test behind the access code, or resumes the
// student's running attempt on it.
func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (resp *AttemptResponse, err error) {
	op := s.logger.WithOperation(ctx, "start_attempt", studentID)
	defer func() { op.LogResult(attemptIDOf(resp), "attempt", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.tests.GetByAccessCode(ctx, req.AccessCode)
	if err != nil {
		return nil, err
	}
	switch test.Status {
	case models.TestStatusPublished:
	case models.TestStatusClosed:
		return nil, ErrTestClosed
	default:
		return nil, ErrTestNotPublished
	}

	existing, err := s.repo.Attempt().GetByTestAndStudent(ctx, nil, test.ID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if existing != nil {
		return s.resume(ctx, existing, test)
	}

	attempt := &models.Attempt{
		TestID:    test.ID,
		StudentID: studentID,
		Status:    models.AttemptStarted,
		StartedAt: s.now().UTC(),
	}
	if err = s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		// A concurrent start for the same student wins the unique index.
		if raced, getErr := s.repo.Attempt().GetByTestAndStudent(ctx, nil, test.ID, studentID); getErr == nil && raced != nil {
			return s.resume(ctx, raced, test)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	attempt.Test = *test

	s.notifier.NotifyAttemptStarted(ctx, attempt, test)
	return buildAttemptResponse(attempt), nil
}

// SubmitSection parses one section and replaces it in the attempt's draft.
// The draft is left untouched when the text does not parse.
func (s *attemptService) SubmitSection(ctx context.Context, attemptID uint, section grading.SectionCode, req *SectionInputRequest, studentID string) (resp *ProgressResponse, err error) {
	op := s.logger.WithOperation(ctx, "submit_section", studentID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if !section.Valid() {
		return nil, ErrInvalidSection
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.getActiveAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	layout := attempt.Test.Template.Layout()
	patch, err := grading.ParseSection(section, req.Text, layout)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafts.Load(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	draft = draft.Merge(patch)
	if err = s.drafts.Save(ctx, attempt.ID, draft, s.draftTTL); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	return s.draftProgress(attempt, draft), nil
}

func (s *attemptService) GetProgress(ctx context.Context, attemptID uint, studentID string) (*ProgressResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "view")
	if err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptSubmitted {
		answers, err := s.repo.AttemptAnswer().GetByAttempt(ctx, nil, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get answers: %w", err)
		}
		sheet, err := models.AttemptAnswerSheet(answers)
		if err != nil {
			return nil, err
		}
		return s.draftProgress(attempt, sheet), nil
	}

	draft, err := s.drafts.Load(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return s.draftProgress(attempt, draft), nil
}

// Submit scores the completed draft against the test's answer key. The score
// is stored at most once per attempt.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (resp *SubmitResultResponse, err error) {
	op := s.logger.WithOperation(ctx, "submit_attempt", studentID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	attempt, err := s.getActiveAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	layout := attempt.Test.Template.Layout()
	draft, err := s.drafts.Load(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if incomplete := layout.IncompleteSections(draft); len(incomplete) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDraftIncomplete, joinSections(incomplete))
	}

	keys, err := s.repo.AnswerKey().GetByTest(ctx, nil, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer keys: %w", err)
	}
	key, err := models.AnswerKeySheet(keys)
	if err != nil {
		return nil, err
	}

	result, err := grading.Score(key, draft)
	if err != nil {
		return nil, err
	}

	attempt.ApplyScore(result, s.now().UTC())
	rows, err := models.NewAttemptAnswers(attempt.ID, draft)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Attempt().CompleteAttempt(ctx, tx, attempt); err != nil {
			return err
		}
		return s.repo.AttemptAnswer().CreateBatch(ctx, tx, rows)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, ErrAttemptAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to store score: %w", err)
	}

	if delErr := s.drafts.Delete(ctx, attempt.ID); delErr != nil {
		s.logger.logger.Warn("Failed to delete draft", "attempt_id", attempt.ID, "error", delErr)
	}

	maxScore := layout.MaxScore()
	s.notifier.NotifyAttemptSubmitted(ctx, attempt, result, maxScore)

	incorrect := result.AllIncorrect()
	preview := incorrect
	if len(preview) > incorrectPreview {
		preview = preview[:incorrectPreview]
	}
	return &SubmitResultResponse{
		AttemptID:      attempt.ID,
		Score:          result,
		MaxScore:       maxScore,
		Feedback:       summary.Feedback(result.Total),
		IncorrectItems: preview,
		IncorrectText:  summary.FormatIncorrect(incorrect, incorrectPreview),
	}, nil
}

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "view")
	if err != nil {
		return nil, err
	}
	return buildAttemptResponse(attempt), nil
}

// ListByStudent returns the student's latest attempts, newest first.
func (s *attemptService) ListByStudent(ctx context.Context, studentID string, limit int) ([]*AttemptSummary, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	attempts, _, err := s.repo.Attempt().GetByStudent(ctx, nil, studentID, repositories.AttemptFilters{
		Limit:     limit,
		SortBy:    "started_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	summaries := make([]*AttemptSummary, len(attempts))
	for i, a := range attempts {
		summaries[i] = &AttemptSummary{
			AttemptID:   a.ID,
			TestID:      a.TestID,
			TestTitle:   a.Test.Title,
			Status:      a.Status,
			ScoreTotal:  a.ScoreTotal,
			StartedAt:   a.StartedAt,
			SubmittedAt: a.SubmittedAt,
		}
	}
	return summaries, nil
}

// ===== HELPERS =====

func (s *attemptService) resume(ctx context.Context, attempt *models.Attempt, test *models.Test) (*AttemptResponse, error) {
	attempt.Test = *test
	switch attempt.Status {
	case models.AttemptSubmitted:
		return nil, ErrAttemptAlreadySubmitted
	case models.AttemptExpired:
		return nil, ErrAttemptTimeExpired
	}
	if err := s.expireIfOverdue(ctx, attempt); err != nil {
		return nil, err
	}

	resp := buildAttemptResponse(attempt)
	resp.Resumed = true
	return resp, nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, studentID, action string) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if !attempt.IsOwner(studentID) {
		return nil, NewPermissionError(studentID, attemptID, "attempt", action, "not owned by student")
	}
	return attempt, nil
}

// getActiveAttempt returns an owned attempt that still accepts answers.
func (s *attemptService) getActiveAttempt(ctx context.Context, attemptID uint, studentID string) (*models.Attempt, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "answer")
	if err != nil {
		return nil, err
	}
	switch attempt.Status {
	case models.AttemptSubmitted:
		return nil, ErrAttemptAlreadySubmitted
	case models.AttemptExpired:
		return nil, ErrAttemptTimeExpired
	}
	if err := s.expireIfOverdue(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// expireIfOverdue marks a started attempt past its deadline as expired.
func (s *attemptService) expireIfOverdue(ctx context.Context, attempt *models.Attempt) error {
	if !s.now().After(attempt.Test.Deadline(attempt.StartedAt)) {
		return nil
	}
	err := s.repo.Attempt().UpdateStatus(ctx, nil, attempt.ID, models.AttemptStarted, models.AttemptExpired)
	if err != nil && !errors.Is(err, repositories.ErrConflict) {
		return fmt.Errorf("failed to expire attempt: %w", err)
	}
	attempt.Status = models.AttemptExpired
	return ErrAttemptTimeExpired
}

func (s *attemptService) draftProgress(attempt *models.Attempt, sheet grading.AnswerSheet) *ProgressResponse {
	subtitle := fmt.Sprintf("Status: %s", attempt.Status)
	if attempt.Status == models.AttemptStarted {
		left := attempt.Test.Deadline(attempt.StartedAt).Sub(s.now())
		if left < 0 {
			left = 0
		}
		subtitle = fmt.Sprintf("Time left: %d min", int(left.Minutes()))
	}
	return buildProgress(sheet, attempt.Test.Template.Layout(), attempt.Test.Title, subtitle)
}

func buildAttemptResponse(attempt *models.Attempt) *AttemptResponse {
	resp := &AttemptResponse{
		ID:          attempt.ID,
		TestID:      attempt.TestID,
		TestTitle:   attempt.Test.Title,
		Status:      attempt.Status,
		StartedAt:   attempt.StartedAt,
		Deadline:    attempt.Test.Deadline(attempt.StartedAt),
		SubmittedAt: attempt.SubmittedAt,
		MaxScore:    attempt.Test.Template.Layout().MaxScore(),
		Material:    attempt.Test.Material(),
	}
	if result, ok := attempt.ScoreResult(); ok {
		resp.Score = &result
	}
	return resp
}

func joinSections(codes []grading.SectionCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func attemptIDOf(resp *AttemptResponse) uint {
	if resp == nil {
		return 0
	}
	return resp.ID
}
