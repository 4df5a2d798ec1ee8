package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/answer-scoring-service/internal/events"
	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
)

// NotificationEventService turns domain changes into published events.
// Publishing is best effort: failures are logged and never fail the caller.
type NotificationEventService interface {
	NotifyTestPublished(ctx context.Context, test *models.Test)
	NotifyTestClosed(ctx context.Context, test *models.Test, attemptCount int)
	NotifyAnswerKeyUpdated(ctx context.Context, test *models.Test, section grading.SectionCode, stage int)
	NotifyAttemptStarted(ctx context.Context, attempt *models.Attempt, test *models.Test)
	NotifyAttemptSubmitted(ctx context.Context, attempt *models.Attempt, result grading.ScoreResult, maxScore int)
}

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(eventPublisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *notificationEventService) NotifyTestPublished(ctx context.Context, test *models.Test) {
	s.publish(ctx, events.NewTestPublishedEvent(test.ID, test.Title, test.AccessCode, test.TeacherID, test.TimeLimitMinutes))
}

func (s *notificationEventService) NotifyTestClosed(ctx context.Context, test *models.Test, attemptCount int) {
	closedAt := test.UpdatedAt
	if test.ClosedAt != nil {
		closedAt = *test.ClosedAt
	}
	s.publish(ctx, events.NewTestClosedEvent(test.ID, test.TeacherID, closedAt, attemptCount))
}

func (s *notificationEventService) NotifyAnswerKeyUpdated(ctx context.Context, test *models.Test, section grading.SectionCode, stage int) {
	s.publish(ctx, events.NewAnswerKeyUpdatedEvent(test.ID, section, test.TeacherID, stage))
}

func (s *notificationEventService) NotifyAttemptStarted(ctx context.Context, attempt *models.Attempt, test *models.Test) {
	s.publish(ctx, events.NewAttemptStartedEvent(attempt.ID, test.ID, test.Title, attempt.StudentID, attempt.StartedAt, test.TimeLimitMinutes))
}

func (s *notificationEventService) NotifyAttemptSubmitted(ctx context.Context, attempt *models.Attempt, result grading.ScoreResult, maxScore int) {
	submittedAt := attempt.StartedAt
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}
	s.publish(ctx, events.NewAttemptSubmittedEvent(attempt.ID, attempt.TestID, attempt.StudentID, submittedAt, result, maxScore))
}

func (s *notificationEventService) publish(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
