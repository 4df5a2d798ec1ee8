// Package summary renders the plain-text progress card shown while a
// teacher enters an answer key or a student fills in a test.
package summary

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

const (
	singleChoicePerLine = 8
	placeholder         = "..."
	emptyBlock          = "-"
)

// Card carries everything rendered on a progress card.
type Card struct {
	Title       string
	Subtitle    string
	Sheet       grading.AnswerSheet
	Layout      grading.Layout
	Error       string
	Instruction string
}

// Render builds the card text: one status line per step followed by the
// values entered so far.
func Render(c Card) string {
	y1Range := itemSpan(1, c.Layout.SingleChoiceCount)
	y2Range := spanOf(c.Layout.MultiChoiceItems)
	oRange := spanOf(c.Layout.OpenItems)

	lines := []string{c.Title}
	if c.Subtitle != "" {
		lines = append(lines, c.Subtitle)
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Step 1: items %s (%s) -> %s", y1Range, c.Layout.Alphabet(grading.SectionSingleChoice).Range(), mark(c.Layout.Complete(c.Sheet, grading.SectionSingleChoice))),
		fmt.Sprintf("Step 2: items %s (%s) -> %s", y2Range, c.Layout.Alphabet(grading.SectionMultiChoice).Range(), mark(c.Layout.Complete(c.Sheet, grading.SectionMultiChoice))),
		fmt.Sprintf("Step 3: items %s (a and b) -> %s", oRange, mark(c.Layout.Complete(c.Sheet, grading.SectionOpen))),
		"",
		"Entered answers:",
		fmt.Sprintf("Items %s:", y1Range),
		SingleChoiceBlock(c.Sheet.SingleChoice, c.Layout.SingleChoiceCount),
		"",
		fmt.Sprintf("Items %s:", y2Range),
		MultiChoiceBlock(c.Sheet.MultiChoice, c.Layout.MultiChoiceItems),
		"",
		fmt.Sprintf("Items %s:", oRange),
		OpenBlock(c.Sheet.Open, c.Layout.OpenItems),
	)
	if c.Error != "" {
		lines = append(lines, "Error: "+c.Error)
	}
	if c.Instruction != "" {
		lines = append(lines, "Next: "+c.Instruction)
	}
	return strings.Join(lines, "\n")
}

// SingleChoiceBlock lists "index:letter" entries, eight per line. Anything
// short of a complete section renders as "-".
func SingleChoiceBlock(s *grading.SingleChoiceSection, expectedLen int) string {
	if s == nil || len(s.Answers) != expectedLen || expectedLen == 0 {
		return emptyBlock
	}
	var lines []string
	var row []string
	for i, r := range s.Answers {
		row = append(row, fmt.Sprintf("%d:%c", i+1, r))
		if len(row) == singleChoicePerLine {
			lines = append(lines, strings.Join(row, "  "))
			row = nil
		}
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, "  "))
	}
	return strings.Join(lines, "\n")
}

// MultiChoiceBlock lists "item:letter" entries in layout order.
func MultiChoiceBlock(s *grading.MultiChoiceSection, items []int) string {
	if s == nil {
		return emptyBlock
	}
	parts := make([]string, 0, len(items))
	for _, n := range items {
		v := s.Answers[n]
		if v == "" {
			return emptyBlock
		}
		parts = append(parts, fmt.Sprintf("%d:%s", n, v))
	}
	return strings.Join(parts, "  ")
}

// OpenBlock renders one "NNa=.. | NNb=.." line per item, with a placeholder
// for values not entered yet.
func OpenBlock(s *grading.OpenSection, items []int) string {
	if s == nil || len(s.Items) == 0 {
		return emptyBlock
	}
	values := s.ItemMap()
	lines := make([]string, 0, len(items))
	for _, n := range items {
		p := values[n]
		lines = append(lines, fmt.Sprintf("%d%s=%s | %d%s=%s",
			n, grading.PartA, orPlaceholder(p.A), n, grading.PartB, orPlaceholder(p.B)))
	}
	return strings.Join(lines, "\n")
}

// Instruction returns the prompt for the next step of a sheet at stage.
func Instruction(stage int, layout grading.Layout) string {
	switch stage {
	case grading.StageSingleChoice:
		return fmt.Sprintf("send %d letters (%s) in one message, e.g. ABCD..., or pairs like 1=A 2=C",
			layout.SingleChoiceCount, layout.Alphabet(grading.SectionSingleChoice).Range())
	case grading.StageMultiChoice:
		return fmt.Sprintf("send items %s as pairs, e.g. %s", spanOf(layout.MultiChoiceItems), choiceExample(layout.MultiChoiceItems, layout.Alphabet(grading.SectionMultiChoice)))
	case grading.StageOpen:
		return fmt.Sprintf("send items %s as pairs, e.g. %s", spanOf(layout.OpenItems), openExample(layout.OpenItems))
	}
	return "all sections are complete, you can submit"
}

// Feedback is a short remark on a final total.
func Feedback(total int) string {
	switch {
	case total >= 40:
		return "Excellent result, keep it up."
	case total >= 30:
		return "Good result, a little more practice will help."
	}
	return "Review the incorrect items and try again."
}

// FormatIncorrect lists up to limit item numbers, noting how many were left out.
func FormatIncorrect(items []int, limit int) string {
	if len(items) == 0 {
		return "none"
	}
	shown := items
	if limit > 0 && len(items) > limit {
		shown = items[:limit]
	}
	parts := make([]string, len(shown))
	for i, n := range shown {
		parts[i] = fmt.Sprint(n)
	}
	out := strings.Join(parts, ", ")
	if len(shown) < len(items) {
		out += fmt.Sprintf(" (+%d more)", len(items)-len(shown))
	}
	return out
}

func mark(ok bool) string {
	if ok {
		return "done"
	}
	return "pending"
}

func orPlaceholder(v string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func itemSpan(from, to int) string {
	if to <= from {
		return fmt.Sprint(from)
	}
	return fmt.Sprintf("%d-%d", from, to)
}

func spanOf(items []int) string {
	if len(items) == 0 {
		return emptyBlock
	}
	lo, hi := items[0], items[0]
	for _, n := range items[1:] {
		lo = min(lo, n)
		hi = max(hi, n)
	}
	return itemSpan(lo, hi)
}

func choiceExample(items []int, alphabet grading.Alphabet) string {
	letters := string(alphabet)
	parts := make([]string, 0, len(items))
	for i, n := range items {
		parts = append(parts, fmt.Sprintf("%d=%c", n, letters[i%len(letters)]))
	}
	return strings.Join(parts, " ")
}

func openExample(items []int) string {
	if len(items) == 0 {
		return ""
	}
	n := items[0]
	return fmt.Sprintf("%da=12 %db=-3/4", n, n)
}
