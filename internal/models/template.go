package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

// TemplateSection describes one section of a subject template.
type TemplateSection struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	ItemCount    int      `json:"item_count,omitempty"`
	ItemNumbers  []int    `json:"item_numbers,omitempty"`
	AllowedChars []string `json:"allowed_chars,omitempty"`
	Subparts     []string `json:"subparts,omitempty"`
	AnswerType   string   `json:"answer_type,omitempty"`
}

// TemplateStructure is the JSON layout stored on a subject template.
type TemplateStructure struct {
	TotalTimeMinutes int               `json:"total_time_minutes"`
	Sections         []TemplateSection `json:"sections"`
}

// Section returns the section with the given code.
func (s TemplateStructure) Section(code grading.SectionCode) (TemplateSection, bool) {
	for _, sec := range s.Sections {
		if sec.Code == string(code) {
			return sec, true
		}
	}
	return TemplateSection{}, false
}

// Layout converts the structure into a grading layout. Sections the
// template leaves out use the default layout. The result is not checked;
// see Validate.
func (s TemplateStructure) Layout() grading.Layout {
	layout := grading.DefaultLayout()
	if sec, ok := s.Section(grading.SectionSingleChoice); ok {
		if sec.ItemCount > 0 {
			layout.SingleChoiceCount = sec.ItemCount
		}
		if len(sec.AllowedChars) > 0 {
			layout.SingleChoiceLetters = alphabet(sec.AllowedChars)
		}
	}
	if sec, ok := s.Section(grading.SectionMultiChoice); ok {
		if len(sec.ItemNumbers) > 0 {
			layout.MultiChoiceItems = append([]int(nil), sec.ItemNumbers...)
		}
		if len(sec.AllowedChars) > 0 {
			layout.MultiChoiceLetters = alphabet(sec.AllowedChars)
		}
	}
	if sec, ok := s.Section(grading.SectionOpen); ok && len(sec.ItemNumbers) > 0 {
		layout.OpenItems = append([]int(nil), sec.ItemNumbers...)
	}
	return layout
}

// Validate rejects structures whose layout cannot be answered, such as open
// items without two-digit numbers.
func (s TemplateStructure) Validate() error {
	return s.Layout().Validate()
}

// TimeLimit returns the template's time limit, falling back to the default.
func (s TemplateStructure) TimeLimit() int {
	if s.TotalTimeMinutes > 0 {
		return s.TotalTimeMinutes
	}
	return grading.DefaultTimeLimitMinutes
}

type SubjectTemplate struct {
	ID          uint                                  `json:"id" gorm:"primaryKey"`
	SubjectCode string                                `json:"subject_code" gorm:"not null;size:50;uniqueIndex"`
	SubjectName string                                `json:"subject_name" gorm:"not null;size:200"`
	Description *string                               `json:"description" gorm:"type:text"`
	Structure   datatypes.JSONType[TemplateStructure] `json:"structure" gorm:"type:jsonb;not null"`
	IsActive    bool                                  `json:"is_active" gorm:"default:true;index"`
	CreatedAt   time.Time                             `json:"created_at"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}

// Layout is a shortcut for the template structure's grading layout.
func (t *SubjectTemplate) Layout() grading.Layout {
	return t.Structure.Data().Layout()
}

// MathTemplateCode is the code of the built-in mathematics template.
const MathTemplateCode = "math"

// DefaultMathTemplate returns the seeded mathematics template.
func DefaultMathTemplate() *SubjectTemplate {
	layout := grading.DefaultLayout()
	description := "Mathematics: 32 single-choice, 3 multi-choice and 10 two-part open items"
	return &SubjectTemplate{
		SubjectCode: MathTemplateCode,
		SubjectName: "Mathematics",
		Description: &description,
		IsActive:    true,
		Structure: datatypes.NewJSONType(TemplateStructure{
			TotalTimeMinutes: grading.DefaultTimeLimitMinutes,
			Sections: []TemplateSection{
				{
					Code:         string(grading.SectionSingleChoice),
					Name:         "Single choice",
					ItemCount:    layout.SingleChoiceCount,
					AllowedChars: letters(layout.SingleChoiceLetters),
				},
				{
					Code:         string(grading.SectionMultiChoice),
					Name:         "Multiple choice",
					ItemNumbers:  layout.MultiChoiceItems,
					AllowedChars: letters(layout.MultiChoiceLetters),
				},
				{
					Code:        string(grading.SectionOpen),
					Name:        "Open answers",
					ItemNumbers: layout.OpenItems,
					Subparts:    []string{grading.PartA, grading.PartB},
					AnswerType:  "number_or_fraction",
				},
			},
		}),
	}
}

func letters(a grading.Alphabet) []string {
	out := make([]string, 0, len(a))
	for _, r := range a {
		out = append(out, string(r))
	}
	return out
}

func alphabet(chars []string) grading.Alphabet {
	return grading.Alphabet(strings.ToUpper(strings.Join(chars, "")))
}
