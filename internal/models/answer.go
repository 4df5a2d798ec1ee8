package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

// TestAnswerKey stores the key of one section of a test. There is at most
// one row per (test, section); writing a section again replaces it.
type TestAnswerKey struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TestID      uint           `json:"test_id" gorm:"not null;uniqueIndex:idx_test_section"`
	SectionCode string         `json:"section_code" gorm:"not null;size:4;uniqueIndex:idx_test_section"`
	Payload     datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AttemptAnswer stores the submitted answers of one section of an attempt.
type AttemptAnswer struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	AttemptID   uint           `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_section"`
	SectionCode string         `json:"section_code" gorm:"not null;size:4;uniqueIndex:idx_attempt_section"`
	Payload     datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SectionPayload encodes one section of the sheet for storage.
func SectionPayload(sheet grading.AnswerSheet, code grading.SectionCode) (datatypes.JSON, error) {
	var value any
	switch code {
	case grading.SectionSingleChoice:
		value = sheet.SingleChoice
	case grading.SectionMultiChoice:
		value = sheet.MultiChoice
	case grading.SectionOpen:
		value = sheet.Open
	default:
		return nil, fmt.Errorf("unknown section code %q", code)
	}
	if !sheet.Has(code) {
		return nil, fmt.Errorf("section %s is empty", code)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode section %s: %w", code, err)
	}
	return datatypes.JSON(raw), nil
}

// applyPayload decodes a stored section into the sheet.
func applyPayload(sheet *grading.AnswerSheet, code string, payload datatypes.JSON) error {
	switch grading.SectionCode(code) {
	case grading.SectionSingleChoice:
		var s grading.SingleChoiceSection
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("failed to decode section %s: %w", code, err)
		}
		sheet.SingleChoice = &s
	case grading.SectionMultiChoice:
		var s grading.MultiChoiceSection
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("failed to decode section %s: %w", code, err)
		}
		sheet.MultiChoice = &s
	case grading.SectionOpen:
		var s grading.OpenSection
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("failed to decode section %s: %w", code, err)
		}
		sheet.Open = &s
	default:
		return fmt.Errorf("unknown section code %q", code)
	}
	return nil
}

// AnswerKeySheet assembles stored key rows into one sheet.
func AnswerKeySheet(keys []*TestAnswerKey) (grading.AnswerSheet, error) {
	var sheet grading.AnswerSheet
	for _, k := range keys {
		if err := applyPayload(&sheet, k.SectionCode, k.Payload); err != nil {
			return grading.AnswerSheet{}, err
		}
	}
	return sheet, nil
}

// AttemptAnswerSheet assembles stored answer rows into one sheet.
func AttemptAnswerSheet(answers []*AttemptAnswer) (grading.AnswerSheet, error) {
	var sheet grading.AnswerSheet
	for _, a := range answers {
		if err := applyPayload(&sheet, a.SectionCode, a.Payload); err != nil {
			return grading.AnswerSheet{}, err
		}
	}
	return sheet, nil
}

// NewAttemptAnswers splits a sheet into one row per written section.
func NewAttemptAnswers(attemptID uint, sheet grading.AnswerSheet) ([]*AttemptAnswer, error) {
	var rows []*AttemptAnswer
	for _, code := range grading.Sections {
		if !sheet.Has(code) {
			continue
		}
		payload, err := SectionPayload(sheet, code)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &AttemptAnswer{
			AttemptID:   attemptID,
			SectionCode: string(code),
			Payload:     payload,
		})
	}
	return rows, nil
}
