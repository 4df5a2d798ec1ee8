// Package grading turns loosely formatted answer text into structured
// per-section answers, tracks how far a multi-step submission has progressed
// and scores a submission against an answer key. It performs no I/O.
package grading

import (
	"sort"
	"strconv"
)

// SectionCode identifies one of the three sections of a test.
type SectionCode string

const (
	SectionSingleChoice SectionCode = "Y1"
	SectionMultiChoice  SectionCode = "Y2"
	SectionOpen         SectionCode = "O"
)

// Sections lists the section codes in submission order.
var Sections = []SectionCode{SectionSingleChoice, SectionMultiChoice, SectionOpen}

// Valid reports whether c is one of the known section codes.
func (c SectionCode) Valid() bool {
	switch c {
	case SectionSingleChoice, SectionMultiChoice, SectionOpen:
		return true
	}
	return false
}

func (c SectionCode) String() string { return string(c) }

// Open items have exactly two sub-values.
const (
	PartA = "a"
	PartB = "b"
)

// ItemChoices maps an item number to the chosen letter.
type ItemChoices map[int]string

// ItemNumbers returns the item numbers in ascending order.
func (c ItemChoices) ItemNumbers() []int {
	return sortedKeys(c)
}

// OpenPair holds the canonical numeric values of an open item's two parts.
type OpenPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Complete reports whether both parts are filled in.
func (p OpenPair) Complete() bool {
	return p.A != "" && p.B != ""
}

// OpenAnswers maps an open item number to its pair of values.
type OpenAnswers map[int]OpenPair

// ItemNumbers returns the item numbers in ascending order.
func (a OpenAnswers) ItemNumbers() []int {
	return sortedKeys(a)
}

// OpenItem is one entry of an open section, in the ordered form used by
// answer keys.
type OpenItem struct {
	ItemNo int    `json:"item_no"`
	A      string `json:"a"`
	B      string `json:"b"`
}

// SingleChoiceSection is the payload of a Y1 section: one letter per item, in order.
type SingleChoiceSection struct {
	Answers string `json:"answers"`
}

// MultiChoiceSection is the payload of a Y2 section.
type MultiChoiceSection struct {
	Answers ItemChoices `json:"answers"`
}

// OpenSection is the payload of an O section, ordered by item number.
type OpenSection struct {
	Items []OpenItem `json:"items"`
}

// NewOpenSection builds an ordered open section from parsed answers.
func NewOpenSection(answers OpenAnswers) *OpenSection {
	items := make([]OpenItem, 0, len(answers))
	for _, n := range answers.ItemNumbers() {
		p := answers[n]
		items = append(items, OpenItem{ItemNo: n, A: p.A, B: p.B})
	}
	return &OpenSection{Items: items}
}

// ItemMap indexes the section by item number.
func (s *OpenSection) ItemMap() OpenAnswers {
	out := make(OpenAnswers, len(s.Items))
	for _, it := range s.Items {
		out[it.ItemNo] = OpenPair{A: it.A, B: it.B}
	}
	return out
}

// AnswerSheet holds one value per section. It is used both for answer keys
// and for student submissions. A nil section has not been written yet.
type AnswerSheet struct {
	SingleChoice *SingleChoiceSection `json:"Y1,omitempty"`
	MultiChoice  *MultiChoiceSection  `json:"Y2,omitempty"`
	Open         *OpenSection         `json:"O,omitempty"`
}

// Has reports whether the section has been written.
func (s AnswerSheet) Has(code SectionCode) bool {
	switch code {
	case SectionSingleChoice:
		return s.SingleChoice != nil
	case SectionMultiChoice:
		return s.MultiChoice != nil
	case SectionOpen:
		return s.Open != nil
	}
	return false
}

// MissingSections returns the codes of sections not yet written, in order.
func (s AnswerSheet) MissingSections() []SectionCode {
	var missing []SectionCode
	for _, code := range Sections {
		if !s.Has(code) {
			missing = append(missing, code)
		}
	}
	return missing
}

// SectionScores holds the number of correct items per section.
type SectionScores struct {
	SingleChoice int `json:"Y1"`
	MultiChoice  int `json:"Y2"`
	Open         int `json:"O"`
}

// IncorrectItems holds the incorrect item numbers per section, ascending.
type IncorrectItems struct {
	SingleChoice []int `json:"Y1"`
	MultiChoice  []int `json:"Y2"`
	Open         []int `json:"O"`
}

// ScoreResult is the outcome of scoring one submission.
type ScoreResult struct {
	Total      int            `json:"total"`
	PerSection SectionScores  `json:"per_section"`
	Incorrect  IncorrectItems `json:"incorrect"`
}

// AllIncorrect merges the incorrect items of every section into one
// ascending list without duplicates.
func (r ScoreResult) AllIncorrect() []int {
	merged := make([]int, 0, len(r.Incorrect.SingleChoice)+len(r.Incorrect.MultiChoice)+len(r.Incorrect.Open))
	merged = append(merged, r.Incorrect.SingleChoice...)
	merged = append(merged, r.Incorrect.MultiChoice...)
	merged = append(merged, r.Incorrect.Open...)
	return sortUnique(merged)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortUnique(items []int) []int {
	if len(items) == 0 {
		return []int{}
	}
	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func itoaAll(items []int) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = strconv.Itoa(v)
	}
	return out
}
