package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

// EventType represents the kinds of domain events the service emits
type EventType string

const (
	// Test events
	EventTestPublished    EventType = "test.published"
	EventTestClosed       EventType = "test.closed"
	EventAnswerKeyUpdated EventType = "answer_key.updated"

	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
)

const (
	eventSource  = "answer-scoring-service"
	eventVersion = "1.0"
)

// Event is the envelope shared by all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Test event payloads

type TestPublishedEvent struct {
	TestID           uint   `json:"test_id"`
	Title            string `json:"title"`
	AccessCode       string `json:"access_code"`
	TeacherID        string `json:"teacher_id"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
}

type TestClosedEvent struct {
	TestID       uint      `json:"test_id"`
	TeacherID    string    `json:"teacher_id"`
	ClosedAt     time.Time `json:"closed_at"`
	AttemptCount int       `json:"attempt_count"`
}

type AnswerKeyUpdatedEvent struct {
	TestID      uint   `json:"test_id"`
	SectionCode string `json:"section_code"`
	TeacherID   string `json:"teacher_id"`
	Stage       int    `json:"stage"`
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	TestID    uint      `json:"test_id"`
	TestTitle string    `json:"test_title"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	TimeLimit int       `json:"time_limit"` // minutes
}

type AttemptSubmittedEvent struct {
	AttemptID   uint                   `json:"attempt_id"`
	TestID      uint                   `json:"test_id"`
	StudentID   string                 `json:"student_id"`
	SubmittedAt time.Time              `json:"submitted_at"`
	Score       grading.ScoreResult    `json:"score"`
	MaxScore    int                    `json:"max_score"`
	Sections    map[string]interface{} `json:"sections,omitempty"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewTestPublishedEvent(testID uint, title, accessCode, teacherID string, timeLimit int) *Event {
	return newEvent(EventTestPublished, TestPublishedEvent{
		TestID:           testID,
		Title:            title,
		AccessCode:       accessCode,
		TeacherID:        teacherID,
		TimeLimitMinutes: timeLimit,
	})
}

func NewTestClosedEvent(testID uint, teacherID string, closedAt time.Time, attemptCount int) *Event {
	return newEvent(EventTestClosed, TestClosedEvent{
		TestID:       testID,
		TeacherID:    teacherID,
		ClosedAt:     closedAt,
		AttemptCount: attemptCount,
	})
}

func NewAnswerKeyUpdatedEvent(testID uint, section grading.SectionCode, teacherID string, stage int) *Event {
	return newEvent(EventAnswerKeyUpdated, AnswerKeyUpdatedEvent{
		TestID:      testID,
		SectionCode: string(section),
		TeacherID:   teacherID,
		Stage:       stage,
	})
}

func NewAttemptStartedEvent(attemptID, testID uint, title, studentID string, startedAt time.Time, timeLimit int) *Event {
	return newEvent(EventAttemptStarted, AttemptStartedEvent{
		AttemptID: attemptID,
		TestID:    testID,
		TestTitle: title,
		StudentID: studentID,
		StartedAt: startedAt,
		TimeLimit: timeLimit,
	})
}

func NewAttemptSubmittedEvent(attemptID, testID uint, studentID string, submittedAt time.Time, score grading.ScoreResult, maxScore int) *Event {
	return newEvent(EventAttemptSubmitted, AttemptSubmittedEvent{
		AttemptID:   attemptID,
		TestID:      testID,
		StudentID:   studentID,
		SubmittedAt: submittedAt,
		Score:       score,
		MaxScore:    maxScore,
	})
}
