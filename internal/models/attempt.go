package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

type AttemptStatus string

const (
	AttemptStarted   AttemptStatus = "started"
	AttemptSubmitted AttemptStatus = "submitted"
	AttemptExpired   AttemptStatus = "expired"
)

// Attempt is one student's sitting of a test. A student has at most one
// attempt per test.
type Attempt struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	TestID      uint          `json:"test_id" gorm:"not null;uniqueIndex:idx_test_student"`
	StudentID   string        `json:"student_id" gorm:"not null;size:100;uniqueIndex:idx_test_student;index"`
	Status      AttemptStatus `json:"status" gorm:"not null;size:20;default:started;index"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time    `json:"submitted_at"`

	// Scoring results
	ScoreTotal     *int                                        `json:"score_total"`
	ScoreY1        *int                                        `json:"score_y1" gorm:"column:score_y1"`
	ScoreY2        *int                                        `json:"score_y2" gorm:"column:score_y2"`
	ScoreO         *int                                        `json:"score_o" gorm:"column:score_o"`
	IncorrectItems *datatypes.JSONType[grading.IncorrectItems] `json:"incorrect_items" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test    Test             `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Answers []*AttemptAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// IsOwner reports whether the attempt belongs to the student.
func (a *Attempt) IsOwner(studentID string) bool {
	return a.StudentID == studentID
}

// ApplyScore records a score result on the attempt.
func (a *Attempt) ApplyScore(result grading.ScoreResult, submittedAt time.Time) {
	total := result.Total
	y1 := result.PerSection.SingleChoice
	y2 := result.PerSection.MultiChoice
	o := result.PerSection.Open
	incorrect := datatypes.NewJSONType(result.Incorrect)

	a.Status = AttemptSubmitted
	a.SubmittedAt = &submittedAt
	a.ScoreTotal = &total
	a.ScoreY1 = &y1
	a.ScoreY2 = &y2
	a.ScoreO = &o
	a.IncorrectItems = &incorrect
}

// ScoreResult rebuilds the stored score, or false if the attempt has none.
func (a *Attempt) ScoreResult() (grading.ScoreResult, bool) {
	if a.ScoreTotal == nil {
		return grading.ScoreResult{}, false
	}
	result := grading.ScoreResult{Total: *a.ScoreTotal}
	if a.ScoreY1 != nil {
		result.PerSection.SingleChoice = *a.ScoreY1
	}
	if a.ScoreY2 != nil {
		result.PerSection.MultiChoice = *a.ScoreY2
	}
	if a.ScoreO != nil {
		result.PerSection.Open = *a.ScoreO
	}
	if a.IncorrectItems != nil {
		result.Incorrect = a.IncorrectItems.Data()
	}
	return result, true
}
