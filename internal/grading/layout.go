package grading

import (
	"fmt"
	"strings"
)

// Layout describes the shape of a test: how many single-choice items it has,
// which item numbers the multi-choice and open sections use and which letters
// the choice sections accept.
type Layout struct {
	SingleChoiceCount   int
	MultiChoiceItems    []int
	OpenItems           []int
	SingleChoiceLetters Alphabet
	MultiChoiceLetters  Alphabet
}

// Default item layout of the built-in mathematics template.
const (
	DefaultSingleChoiceCount = 32
	DefaultTimeLimitMinutes  = 150
)

// Open items are written as "36a=..." so their numbers must have two digits.
const (
	MinOpenItem = 10
	MaxOpenItem = 99
)

// DefaultLayout returns the layout used when a template does not say otherwise.
func DefaultLayout() Layout {
	return Layout{
		SingleChoiceCount:   DefaultSingleChoiceCount,
		MultiChoiceItems:    itemRange(33, 35),
		OpenItems:           itemRange(36, 45),
		SingleChoiceLetters: SingleChoiceAlphabet,
		MultiChoiceLetters:  MultiChoiceAlphabet,
	}
}

// Alphabet returns the letters accepted by a choice section, falling back to
// the default alphabet when the layout leaves it unset.
func (l Layout) Alphabet(code SectionCode) Alphabet {
	switch code {
	case SectionSingleChoice:
		if l.SingleChoiceLetters != "" {
			return l.SingleChoiceLetters
		}
		return SingleChoiceAlphabet
	case SectionMultiChoice:
		if l.MultiChoiceLetters != "" {
			return l.MultiChoiceLetters
		}
		return MultiChoiceAlphabet
	}
	return ""
}

// Validate reports a layout whose items could not all be answered with the
// accepted input formats.
func (l Layout) Validate() error {
	if l.SingleChoiceCount <= 0 {
		return fmt.Errorf("section %s: item count must be positive", SectionSingleChoice)
	}
	if err := checkItemNumbers(SectionMultiChoice, l.MultiChoiceItems, 1, 0); err != nil {
		return err
	}
	if err := checkItemNumbers(SectionOpen, l.OpenItems, MinOpenItem, MaxOpenItem); err != nil {
		return err
	}
	for _, code := range []SectionCode{SectionSingleChoice, SectionMultiChoice} {
		if err := checkAlphabet(code, l.Alphabet(code)); err != nil {
			return err
		}
	}
	return nil
}

// checkItemNumbers rejects empty, duplicate or out of range item numbers.
// A zero hi leaves the range open.
func checkItemNumbers(code SectionCode, items []int, lo, hi int) error {
	if len(items) == 0 {
		return fmt.Errorf("section %s: no item numbers", code)
	}
	seen := make(map[int]bool, len(items))
	for _, n := range items {
		if n < lo || (hi > 0 && n > hi) {
			if hi > 0 {
				return fmt.Errorf("section %s: item %d outside %d-%d", code, n, lo, hi)
			}
			return fmt.Errorf("section %s: item %d must be at least %d", code, n, lo)
		}
		if seen[n] {
			return fmt.Errorf("section %s: item %d listed twice", code, n)
		}
		seen[n] = true
	}
	return nil
}

func checkAlphabet(code SectionCode, a Alphabet) error {
	for i, r := range a {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("section %s: %q is not an upper-case letter", code, r)
		}
		if strings.ContainsRune(string(a[:i]), r) {
			return fmt.Errorf("section %s: letter %c listed twice", code, r)
		}
	}
	return nil
}

// MaxScore is the highest total a submission can reach under this layout.
func (l Layout) MaxScore() int {
	return l.SingleChoiceCount + len(l.MultiChoiceItems) + len(l.OpenItems)
}

// Complete reports whether the given section of the sheet is filled in
// for every item the layout expects.
func (l Layout) Complete(sheet AnswerSheet, code SectionCode) bool {
	switch code {
	case SectionSingleChoice:
		return sheet.SingleChoice != nil && len(sheet.SingleChoice.Answers) == l.SingleChoiceCount
	case SectionMultiChoice:
		if sheet.MultiChoice == nil || len(sheet.MultiChoice.Answers) != len(l.MultiChoiceItems) {
			return false
		}
		for _, n := range l.MultiChoiceItems {
			if sheet.MultiChoice.Answers[n] == "" {
				return false
			}
		}
		return true
	case SectionOpen:
		if sheet.Open == nil || len(sheet.Open.Items) != len(l.OpenItems) {
			return false
		}
		items := sheet.Open.ItemMap()
		for _, n := range l.OpenItems {
			p, ok := items[n]
			if !ok || !p.Complete() {
				return false
			}
		}
		return true
	}
	return false
}

// IncompleteSections lists the sections of the sheet that are not complete.
func (l Layout) IncompleteSections(sheet AnswerSheet) []SectionCode {
	var out []SectionCode
	for _, code := range Sections {
		if !l.Complete(sheet, code) {
			out = append(out, code)
		}
	}
	return out
}

func itemRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}
