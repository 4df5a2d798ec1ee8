package models

import (
	"time"

	"gorm.io/gorm"
)

type TestStatus string

const (
	TestStatusDraft     TestStatus = "draft"
	TestStatusPublished TestStatus = "published"
	TestStatusClosed    TestStatus = "closed"
)

func (s TestStatus) Valid() bool {
	switch s {
	case TestStatusDraft, TestStatusPublished, TestStatusClosed:
		return true
	}
	return false
}

// MaterialType is the kind of file attached to a test as reading material.
type MaterialType string

const (
	MaterialPhoto    MaterialType = "photo"
	MaterialDocument MaterialType = "document"
)

// TestMaterial is the file shown to students when they start an attempt.
type TestMaterial struct {
	FileID   string       `json:"file_id"`
	FileType MaterialType `json:"file_type"`
	Caption  string       `json:"caption,omitempty"`
}

type Test struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	TeacherID         string     `json:"teacher_id" gorm:"not null;size:100;index"`
	SubjectTemplateID uint       `json:"subject_template_id" gorm:"not null;index"`
	Title             string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Status            TestStatus `json:"status" gorm:"not null;size:20;default:draft;index" validate:"omitempty,test_status"`
	TimeLimitMinutes  int        `json:"time_limit_minutes" gorm:"not null"`
	AccessCode        string     `json:"access_code" gorm:"not null;size:20;uniqueIndex"`
	PublishedAt       *time.Time `json:"published_at"`
	ClosedAt          *time.Time `json:"closed_at"`

	MaterialFileID   *string `json:"material_file_id,omitempty" gorm:"size:255"`
	MaterialFileType *string `json:"material_file_type,omitempty" gorm:"size:32"`
	MaterialCaption  *string `json:"material_caption,omitempty" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Template   SubjectTemplate `json:"template" gorm:"foreignKey:SubjectTemplateID"`
	AnswerKeys []TestAnswerKey `json:"-" gorm:"foreignKey:TestID"`

	// Computed fields (not stored)
	AttemptCount int `json:"attempt_count" gorm:"-"`
}

// IsOwner reports whether the teacher created this test.
func (t *Test) IsOwner(teacherID string) bool {
	return t.TeacherID == teacherID
}

// Deadline returns when an attempt started at startedAt runs out of time.
func (t *Test) Deadline(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(t.TimeLimitMinutes) * time.Minute)
}

// Material returns the attached material, or nil when there is none.
func (t *Test) Material() *TestMaterial {
	if t.MaterialFileID == nil || *t.MaterialFileID == "" {
		return nil
	}
	m := &TestMaterial{FileID: *t.MaterialFileID}
	if t.MaterialFileType != nil {
		m.FileType = MaterialType(*t.MaterialFileType)
	}
	if t.MaterialCaption != nil {
		m.Caption = *t.MaterialCaption
	}
	return m
}

// SetMaterial replaces the attached material. A nil material clears all
// three columns.
func (t *Test) SetMaterial(m *TestMaterial) {
	if m == nil || m.FileID == "" {
		t.MaterialFileID, t.MaterialFileType, t.MaterialCaption = nil, nil, nil
		return
	}
	fileID, fileType := m.FileID, string(m.FileType)
	t.MaterialFileID = &fileID
	t.MaterialFileType = &fileType
	t.MaterialCaption = nil
	if m.Caption != "" {
		caption := m.Caption
		t.MaterialCaption = &caption
	}
}
