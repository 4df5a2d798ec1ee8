package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SAP-F-2025/answer-scoring-service/internal/errors"
)

func sampleKey() AnswerSheet {
	return AnswerSheet{
		SingleChoice: &SingleChoiceSection{Answers: "ABCD"},
		MultiChoice:  &MultiChoiceSection{Answers: ItemChoices{33: "A", 34: "B", 35: "C"}},
		Open: &OpenSection{Items: []OpenItem{
			{ItemNo: 36, A: "1/2", B: "3"},
			{ItemNo: 37, A: "-2", B: "0.5"},
		}},
	}
}

func TestScore(t *testing.T) {
	t.Run("Should score a perfect submission", func(t *testing.T) {
		key := sampleKey()
		result, err := Score(key, key)
		require.NoError(t, err)
		assert.Equal(t, 9, result.Total)
		assert.Equal(t, SectionScores{SingleChoice: 4, MultiChoice: 3, Open: 2}, result.PerSection)
		assert.Empty(t, result.Incorrect.SingleChoice)
		assert.Empty(t, result.Incorrect.MultiChoice)
		assert.Empty(t, result.Incorrect.Open)
		assert.NotNil(t, result.Incorrect.Open)
	})

	t.Run("Should report mismatching single-choice positions", func(t *testing.T) {
		key := AnswerSheet{
			SingleChoice: &SingleChoiceSection{Answers: "ABCD"},
			MultiChoice:  &MultiChoiceSection{Answers: ItemChoices{}},
			Open:         &OpenSection{},
		}
		answers := AnswerSheet{SingleChoice: &SingleChoiceSection{Answers: "ABDD"}}

		result, err := Score(key, answers)
		require.NoError(t, err)
		assert.Equal(t, 3, result.PerSection.SingleChoice)
		assert.Equal(t, []int{3}, result.Incorrect.SingleChoice)
		assert.Equal(t, 3, result.Total)
	})

	t.Run("Should compare single choice up to the shorter run", func(t *testing.T) {
		key := sampleKey()
		answers := AnswerSheet{SingleChoice: &SingleChoiceSection{Answers: "AB"}}

		result, err := Score(key, answers)
		require.NoError(t, err)
		assert.Equal(t, 2, result.PerSection.SingleChoice)
		assert.Empty(t, result.Incorrect.SingleChoice)
	})

	t.Run("Should count missing multi-choice items as incorrect", func(t *testing.T) {
		key := sampleKey()
		answers := AnswerSheet{MultiChoice: &MultiChoiceSection{Answers: ItemChoices{33: "a", 35: "D"}}}

		result, err := Score(key, answers)
		require.NoError(t, err)
		assert.Equal(t, 1, result.PerSection.MultiChoice)
		assert.Equal(t, []int{34, 35}, result.Incorrect.MultiChoice)
	})

	t.Run("Should compare open values by canonical form", func(t *testing.T) {
		key := sampleKey()
		answers := AnswerSheet{Open: &OpenSection{Items: []OpenItem{
			{ItemNo: 36, A: "2/4", B: "3.0"},
			{ItemNo: 37, A: "-2", B: "1/2"},
		}}}

		result, err := Score(key, answers)
		require.NoError(t, err)
		assert.Equal(t, 1, result.PerSection.Open)
		assert.Equal(t, []int{37}, result.Incorrect.Open)
	})

	t.Run("Should give no credit when one part of an open item is wrong", func(t *testing.T) {
		key := sampleKey()
		answers := AnswerSheet{Open: &OpenSection{Items: []OpenItem{
			{ItemNo: 36, A: "1/2", B: "4"},
			{ItemNo: 37, A: "-2", B: "0.5"},
		}}}

		result, err := Score(key, answers)
		require.NoError(t, err)
		assert.Equal(t, 1, result.PerSection.Open)
		assert.Equal(t, []int{36}, result.Incorrect.Open)
	})

	t.Run("Should treat unparseable open values as incorrect", func(t *testing.T) {
		key := sampleKey()
		answers := AnswerSheet{Open: &OpenSection{Items: []OpenItem{
			{ItemNo: 36, A: "half", B: "3"},
		}}}

		result, err := Score(key, answers)
		require.NoError(t, err)
		assert.Equal(t, 0, result.PerSection.Open)
		assert.Equal(t, []int{36, 37}, result.Incorrect.Open)
	})

	t.Run("Should score an empty submission as zero", func(t *testing.T) {
		result, err := Score(sampleKey(), AnswerSheet{})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
		assert.Equal(t, []int{33, 34, 35}, result.Incorrect.MultiChoice)
		assert.Equal(t, []int{36, 37}, result.Incorrect.Open)
	})

	t.Run("Should fail when the key is incomplete", func(t *testing.T) {
		key := sampleKey()
		key.MultiChoice = nil
		key.Open = nil

		_, err := Score(key, sampleKey())
		require.Error(t, err)
		assert.True(t, apperrors.IsScoringError(err))
		assert.Contains(t, err.Error(), "Y2, O")
	})

	t.Run("Should equal the sum of the sections", func(t *testing.T) {
		answers := AnswerSheet{
			SingleChoice: &SingleChoiceSection{Answers: "ABCA"},
			MultiChoice:  &MultiChoiceSection{Answers: ItemChoices{33: "A", 34: "C", 35: "C"}},
			Open:         &OpenSection{Items: []OpenItem{{ItemNo: 36, A: "0.5", B: "3"}}},
		}
		result, err := Score(sampleKey(), answers)
		require.NoError(t, err)
		assert.Equal(t, result.PerSection.SingleChoice+result.PerSection.MultiChoice+result.PerSection.Open, result.Total)
		assert.Equal(t, 3+2+0, result.Total)
		assert.Equal(t, []int{4, 34, 36, 37}, result.AllIncorrect())
	})
}

func TestScore_ParsedSubmission(t *testing.T) {
	layout := Layout{SingleChoiceCount: 4, MultiChoiceItems: []int{33, 34, 35}, OpenItems: []int{36, 37}}

	sheet := AnswerSheet{}
	for code, raw := range map[SectionCode]string{
		SectionSingleChoice: "1=A 2=B 3=C 4=A",
		SectionMultiChoice:  "abc",
		SectionOpen:         "36a=4/8 36b=3.00 37a=-2 37b=1/2",
	} {
		patch, err := ParseSection(code, raw, layout)
		require.NoError(t, err)
		sheet = sheet.Merge(patch)
	}
	require.Equal(t, StageComplete, Stage(sheet, layout))

	result, err := Score(sampleKey(), sheet)
	require.NoError(t, err)
	assert.Equal(t, 3, result.PerSection.SingleChoice)
	assert.Equal(t, 3, result.PerSection.MultiChoice)
	assert.Equal(t, 1, result.PerSection.Open)
	assert.Equal(t, []int{4, 37}, result.AllIncorrect())
}
