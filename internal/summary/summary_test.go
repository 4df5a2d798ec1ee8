package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

func TestSingleChoiceBlock(t *testing.T) {
	t.Run("Should wrap eight entries per line", func(t *testing.T) {
		block := SingleChoiceBlock(&grading.SingleChoiceSection{Answers: "ABCDABCDAB"}, 10)
		lines := strings.Split(block, "\n")
		assert.Len(t, lines, 2)
		assert.Equal(t, "1:A  2:B  3:C  4:D  5:A  6:B  7:C  8:D", lines[0])
		assert.Equal(t, "9:A  10:B", lines[1])
	})

	t.Run("Should render a dash for incomplete sections", func(t *testing.T) {
		assert.Equal(t, "-", SingleChoiceBlock(nil, 4))
		assert.Equal(t, "-", SingleChoiceBlock(&grading.SingleChoiceSection{Answers: "AB"}, 4))
	})
}

func TestMultiChoiceBlock(t *testing.T) {
	items := []int{33, 34, 35}
	assert.Equal(t, "33:A  34:C  35:E",
		MultiChoiceBlock(&grading.MultiChoiceSection{Answers: grading.ItemChoices{33: "A", 34: "C", 35: "E"}}, items))
	assert.Equal(t, "-",
		MultiChoiceBlock(&grading.MultiChoiceSection{Answers: grading.ItemChoices{33: "A"}}, items))
}

func TestOpenBlock(t *testing.T) {
	block := OpenBlock(&grading.OpenSection{Items: []grading.OpenItem{{ItemNo: 36, A: "12", B: "-3/4"}}}, []int{36, 37})
	assert.Equal(t, "36a=12 | 36b=-3/4\n37a=... | 37b=...", block)
	assert.Equal(t, "-", OpenBlock(nil, []int{36}))
}

func TestRender(t *testing.T) {
	layout := grading.DefaultLayout()
	sheet := grading.AnswerSheet{SingleChoice: &grading.SingleChoiceSection{Answers: strings.Repeat("A", 32)}}

	text := Render(Card{
		Title:       "Answer key",
		Subtitle:    "Test: Algebra mock",
		Sheet:       sheet,
		Layout:      layout,
		Error:       "format error",
		Instruction: Instruction(grading.Stage(sheet, layout), layout),
	})

	assert.Contains(t, text, "Step 1: items 1-32 (A-D) -> done")
	assert.Contains(t, text, "Step 2: items 33-35 (A-E) -> pending")
	assert.Contains(t, text, "Step 3: items 36-45 (a and b) -> pending")
	assert.Contains(t, text, "Error: format error")
	assert.Contains(t, text, "Next: send items 33-35 as pairs, e.g. 33=A 34=B 35=C")
}

func TestFeedback(t *testing.T) {
	assert.Contains(t, Feedback(45), "Excellent")
	assert.Contains(t, Feedback(30), "Good")
	assert.Contains(t, Feedback(12), "Review")
}

func TestFormatIncorrect(t *testing.T) {
	assert.Equal(t, "none", FormatIncorrect(nil, 10))
	assert.Equal(t, "1, 2, 3", FormatIncorrect([]int{1, 2, 3}, 10))
	assert.Equal(t, "1, 2 (+2 more)", FormatIncorrect([]int{1, 2, 3, 4}, 2))
}
