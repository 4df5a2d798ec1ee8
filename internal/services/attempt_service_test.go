package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SAP-F-2025/answer-scoring-service/internal/errors"
	"github.com/SAP-F-2025/answer-scoring-service/internal/events"
	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
)

func newAttempt(id uint, studentID string, status models.AttemptStatus, startedAt time.Time) *models.Attempt {
	return &models.Attempt{
		ID:        id,
		TestID:    1,
		StudentID: studentID,
		Status:    status,
		StartedAt: startedAt,
		Test:      *newTest(1, "teacher-1", models.TestStatusPublished),
	}
}

// studentOpenText answers every open item correctly except 38a, writing
// some values in an equivalent but different form.
func studentOpenText() string {
	var parts []string
	for n := 36; n <= 45; n++ {
		a := fmt.Sprint(n - 35)
		b := "-1/2"
		switch n {
		case 36:
			b = "-2/4"
		case 37:
			b = "−1/2"
		case 38:
			a = "4"
		}
		parts = append(parts, fmt.Sprintf("%da=%s %db=%s", n, a, n, b))
	}
	return strings.Join(parts, ", ")
}

func TestAttemptService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a new attempt", func(t *testing.T) {
		f := newServiceFixture(t)
		test := newTest(1, "teacher-1", models.TestStatusPublished)
		test.SetMaterial(&models.TestMaterial{FileID: "file-42", FileType: models.MaterialPhoto})
		f.repo.testRepo.On("GetByAccessCode", mock.Anything, mock.Anything, "MATH-1A2B").Return(test, nil)
		f.repo.attemptRepo.On("GetByTestAndStudent", mock.Anything, mock.Anything, uint(1), "student-1").Return(nil, nil)
		f.repo.attemptRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
			return a.StudentID == "student-1" && a.Status == models.AttemptStarted && a.StartedAt.Equal(f.now)
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*models.Attempt).ID = 7
		}).Return(nil)

		resp, err := f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "math-1a2b"}, "student-1")
		require.NoError(t, err)
		assert.Equal(t, uint(7), resp.ID)
		assert.False(t, resp.Resumed)
		assert.Equal(t, f.now.Add(150*time.Minute), resp.Deadline)
		assert.Equal(t, 45, resp.MaxScore)
		assert.Equal(t, &models.TestMaterial{FileID: "file-42", FileType: models.MaterialPhoto}, resp.Material)
		assert.Len(t, f.publisher.EventsOfType(events.EventAttemptStarted), 1)
		f.repo.AssertExpectations(t)
	})

	t.Run("resumes a running attempt", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.testRepo.On("GetByAccessCode", mock.Anything, mock.Anything, "MATH-1A2B").Return(newTest(1, "teacher-1", models.TestStatusPublished), nil)
		f.repo.attemptRepo.On("GetByTestAndStudent", mock.Anything, mock.Anything, uint(1), "student-1").
			Return(newAttempt(7, "student-1", models.AttemptStarted, f.now.Add(-10*time.Minute)), nil)

		resp, err := f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "MATH-1A2B"}, "student-1")
		require.NoError(t, err)
		assert.True(t, resp.Resumed)
		f.repo.attemptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.Events())
	})

	t.Run("refuses a second sitting", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.testRepo.On("GetByAccessCode", mock.Anything, mock.Anything, "MATH-1A2B").Return(newTest(1, "teacher-1", models.TestStatusPublished), nil)
		f.repo.attemptRepo.On("GetByTestAndStudent", mock.Anything, mock.Anything, uint(1), "student-1").
			Return(newAttempt(7, "student-1", models.AttemptSubmitted, f.now.Add(-time.Hour)), nil)

		_, err := f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "MATH-1A2B"}, "student-1")
		assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	})

	t.Run("expires an overdue attempt on resume", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.testRepo.On("GetByAccessCode", mock.Anything, mock.Anything, "MATH-1A2B").Return(newTest(1, "teacher-1", models.TestStatusPublished), nil)
		f.repo.attemptRepo.On("GetByTestAndStudent", mock.Anything, mock.Anything, uint(1), "student-1").
			Return(newAttempt(7, "student-1", models.AttemptStarted, f.now.Add(-151*time.Minute)), nil)
		f.repo.attemptRepo.On("UpdateStatus", mock.Anything, mock.Anything, uint(7), models.AttemptStarted, models.AttemptExpired).Return(nil)

		_, err := f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "MATH-1A2B"}, "student-1")
		assert.ErrorIs(t, err, ErrAttemptTimeExpired)
		f.repo.AssertExpectations(t)
	})

	t.Run("draft and closed tests", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := newTest(1, "teacher-1", models.TestStatusDraft)
		closed := newTest(2, "teacher-1", models.TestStatusClosed)
		closed.AccessCode = "MATH-FFFF"
		f.repo.testRepo.On("GetByAccessCode", mock.Anything, mock.Anything, "MATH-1A2B").Return(draft, nil)
		f.repo.testRepo.On("GetByAccessCode", mock.Anything, mock.Anything, "MATH-FFFF").Return(closed, nil)

		_, err := f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "MATH-1A2B"}, "student-1")
		assert.ErrorIs(t, err, ErrTestNotPublished)
		_, err = f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "MATH-FFFF"}, "student-1")
		assert.ErrorIs(t, err, ErrTestClosed)
	})

	t.Run("malformed access code", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.attempts.Start(ctx, &StartAttemptRequest{AccessCode: "hello"}, "student-1")
		assert.True(t, IsValidation(err))
	})
}

func TestAttemptService_SubmitSection(t *testing.T) {
	ctx := context.Background()

	t.Run("merges sections into the draft", func(t *testing.T) {
		f := newServiceFixture(t)
		attempt := newAttempt(7, "student-1", models.AttemptStarted, f.now.Add(-30*time.Minute))
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(attempt, nil)

		resp, err := f.attempts.SubmitSection(ctx, 7, grading.SectionMultiChoice, &SectionInputRequest{Text: "33=a 34=b 35=e"}, "student-1")
		require.NoError(t, err)
		assert.Equal(t, grading.StageSingleChoice, resp.Stage)
		assert.Equal(t, "Y1", resp.NextSection)
		assert.Contains(t, resp.Summary, "Time left: 120 min")

		resp, err = f.attempts.SubmitSection(ctx, 7, grading.SectionSingleChoice, &SectionInputRequest{Text: strings.Repeat("ABCD", 8)}, "student-1")
		require.NoError(t, err)
		assert.Equal(t, grading.StageOpen, resp.Stage)

		draft, err := f.drafts.Load(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, draft.MultiChoice)
		assert.Equal(t, "E", draft.MultiChoice.Answers[35])
		assert.Equal(t, time.Hour, f.redis.TTL("test:draft:attempt:7"))
	})

	t.Run("format errors keep the previous draft", func(t *testing.T) {
		f := newServiceFixture(t)
		attempt := newAttempt(7, "student-1", models.AttemptStarted, f.now)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(attempt, nil)

		_, err := f.attempts.SubmitSection(ctx, 7, grading.SectionMultiChoice, &SectionInputRequest{Text: "33=A 34=B 35=E"}, "student-1")
		require.NoError(t, err)

		_, err = f.attempts.SubmitSection(ctx, 7, grading.SectionMultiChoice, &SectionInputRequest{Text: "33=A 34=F"}, "student-1")
		require.Error(t, err)
		assert.True(t, IsFormat(err))

		draft, err := f.drafts.Load(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, grading.ItemChoices{33: "A", 34: "B", 35: "E"}, draft.MultiChoice.Answers)
	})

	t.Run("other students are refused", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptStarted, f.now), nil)

		_, err := f.attempts.SubmitSection(ctx, 7, grading.SectionOpen, &SectionInputRequest{Text: "36a=1"}, "student-2")
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("overdue attempts refuse input", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptStarted, f.now.Add(-3*time.Hour)), nil)
		f.repo.attemptRepo.On("UpdateStatus", mock.Anything, mock.Anything, uint(7), models.AttemptStarted, models.AttemptExpired).Return(repositories.ErrConflict)

		_, err := f.attempts.SubmitSection(ctx, 7, grading.SectionOpen, &SectionInputRequest{Text: "36a=1"}, "student-1")
		assert.ErrorIs(t, err, ErrAttemptTimeExpired)
	})
}

func TestAttemptService_Submit(t *testing.T) {
	ctx := context.Background()

	fillDraft := func(t *testing.T, f *serviceFixture) {
		t.Helper()
		inputs := map[grading.SectionCode]string{
			grading.SectionSingleChoice: "AACDBBCD" + strings.Repeat("ABCD", 6),
			grading.SectionMultiChoice:  "33=A, 34=B; 35=C",
			grading.SectionOpen:         studentOpenText(),
		}
		for _, code := range grading.Sections {
			_, err := f.attempts.SubmitSection(ctx, 7, code, &SectionInputRequest{Text: inputs[code]}, "student-1")
			require.NoError(t, err)
		}
	}

	t.Run("scores the completed draft once", func(t *testing.T) {
		f := newServiceFixture(t)
		attempt := newAttempt(7, "student-1", models.AttemptStarted, f.now.Add(-time.Hour))
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(attempt, nil)
		f.repo.answerKeyRepo.On("GetByTest", mock.Anything, mock.Anything, uint(1)).Return(keyRows(t, 1, fullKeySheet()), nil)
		f.repo.attemptRepo.On("CompleteAttempt", mock.Anything, mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
			return a.Status == models.AttemptSubmitted && a.ScoreTotal != nil && *a.ScoreTotal == 41
		})).Return(nil)
		f.repo.attemptAnswerRepo.On("CreateBatch", mock.Anything, mock.Anything, mock.MatchedBy(func(rows []*models.AttemptAnswer) bool {
			return len(rows) == 3
		})).Return(nil)

		fillDraft(t, f)
		resp, err := f.attempts.Submit(ctx, 7, "student-1")
		require.NoError(t, err)

		assert.Equal(t, 41, resp.Score.Total)
		assert.Equal(t, grading.SectionScores{SingleChoice: 30, MultiChoice: 2, Open: 9}, resp.Score.PerSection)
		assert.Equal(t, []int{2, 5}, resp.Score.Incorrect.SingleChoice)
		assert.Equal(t, []int{35}, resp.Score.Incorrect.MultiChoice)
		assert.Equal(t, []int{38}, resp.Score.Incorrect.Open)
		assert.Equal(t, []int{2, 5, 35, 38}, resp.IncorrectItems)
		assert.Equal(t, "2, 5, 35, 38", resp.IncorrectText)
		assert.Equal(t, 45, resp.MaxScore)
		assert.Equal(t, "Excellent result, keep it up.", resp.Feedback)

		assert.False(t, f.redis.Exists("test:draft:attempt:7"))
		submitted := f.publisher.EventsOfType(events.EventAttemptSubmitted)
		require.Len(t, submitted, 1)
		assert.Equal(t, 41, submitted[0].Data.(events.AttemptSubmittedEvent).Score.Total)
		f.repo.AssertExpectations(t)
	})

	t.Run("a concurrent submit stores nothing twice", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptStarted, f.now), nil)
		f.repo.answerKeyRepo.On("GetByTest", mock.Anything, mock.Anything, uint(1)).Return(keyRows(t, 1, fullKeySheet()), nil)
		f.repo.attemptRepo.On("CompleteAttempt", mock.Anything, mock.Anything, mock.Anything).Return(repositories.ErrConflict)

		fillDraft(t, f)
		_, err := f.attempts.Submit(ctx, 7, "student-1")
		assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
		f.repo.attemptAnswerRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, f.redis.Exists("test:draft:attempt:7"))
		assert.Empty(t, f.publisher.EventsOfType(events.EventAttemptSubmitted))
	})

	t.Run("incomplete drafts are refused", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptStarted, f.now), nil)

		_, err := f.attempts.SubmitSection(ctx, 7, grading.SectionSingleChoice, &SectionInputRequest{Text: strings.Repeat("A", 32)}, "student-1")
		require.NoError(t, err)

		_, err = f.attempts.Submit(ctx, 7, "student-1")
		assert.ErrorIs(t, err, ErrDraftIncomplete)
		assert.Contains(t, err.Error(), "Y2, O")
	})

	t.Run("missing key sections", func(t *testing.T) {
		f := newServiceFixture(t)
		partial := fullKeySheet()
		partial.MultiChoice = nil
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptStarted, f.now), nil)
		f.repo.answerKeyRepo.On("GetByTest", mock.Anything, mock.Anything, uint(1)).Return(keyRows(t, 1, partial), nil)

		fillDraft(t, f)
		_, err := f.attempts.Submit(ctx, 7, "student-1")
		require.Error(t, err)
		var se *apperrors.ScoringError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{"Y2"}, se.Missing)
		assert.True(t, IsScoring(err))
	})

	t.Run("submitted attempts are final", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptSubmitted, f.now), nil)
		_, err := f.attempts.Submit(ctx, 7, "student-1")
		assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	})
}

func TestAttemptService_GetProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("submitted attempts show stored answers", func(t *testing.T) {
		f := newServiceFixture(t)
		attempt := newAttempt(7, "student-1", models.AttemptSubmitted, f.now.Add(-time.Hour))
		rows, err := models.NewAttemptAnswers(7, fullKeySheet())
		require.NoError(t, err)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(attempt, nil)
		f.repo.attemptAnswerRepo.On("GetByAttempt", mock.Anything, mock.Anything, uint(7)).Return(rows, nil)

		resp, err := f.attempts.GetProgress(ctx, 7, "student-1")
		require.NoError(t, err)
		assert.True(t, resp.Complete)
		assert.Empty(t, resp.NextSection)
		assert.Contains(t, resp.Summary, "Status: submitted")
	})

	t.Run("running attempts show the draft", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.attemptRepo.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(newAttempt(7, "student-1", models.AttemptStarted, f.now), nil)

		resp, err := f.attempts.GetProgress(ctx, 7, "student-1")
		require.NoError(t, err)
		assert.Equal(t, grading.StageSingleChoice, resp.Stage)
		assert.Contains(t, resp.Summary, "Step 3: items 36-45 (a and b) -> pending")
	})
}

func TestAttemptService_ListByStudent(t *testing.T) {
	f := newServiceFixture(t)
	scored := newAttempt(8, "student-1", models.AttemptStarted, f.now)
	scored.ApplyScore(grading.ScoreResult{Total: 33}, f.now)
	filters := repositories.AttemptFilters{Limit: defaultHistoryLimit, SortBy: "started_at", SortOrder: "desc"}
	f.repo.attemptRepo.On("GetByStudent", mock.Anything, mock.Anything, "student-1", filters).
		Return([]*models.Attempt{scored, newAttempt(7, "student-1", models.AttemptExpired, f.now.Add(-24*time.Hour))}, int64(2), nil)

	list, err := f.attempts.ListByStudent(context.Background(), "student-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Algebra mock exam", list[0].TestTitle)
	assert.Equal(t, models.AttemptSubmitted, list[0].Status)
	assert.Equal(t, 33, *list[0].ScoreTotal)
	assert.Nil(t, list[1].ScoreTotal)
}
