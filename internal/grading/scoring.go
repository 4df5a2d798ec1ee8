package grading

import (
	"strings"

	apperrors "github.com/SAP-F-2025/answer-scoring-service/internal/errors"
)

// sectionScorer scores one section of a submission against the key.
type sectionScorer interface {
	Score(key, answers AnswerSheet) (score int, incorrect []int)
}

var (
	_ sectionScorer = singleChoiceScorer{}
	_ sectionScorer = multiChoiceScorer{}
	_ sectionScorer = openScorer{}
)

type singleChoiceScorer struct{}

type multiChoiceScorer struct{}

type openScorer struct{}

// Score compares a submission with the answer key. Every section of the key
// must be present; sections missing from the submission score zero.
func Score(key, answers AnswerSheet) (ScoreResult, error) {
	if missing := key.MissingSections(); len(missing) > 0 {
		codes := make([]string, len(missing))
		for i, c := range missing {
			codes[i] = string(c)
		}
		return ScoreResult{}, &apperrors.ScoringError{Missing: codes}
	}

	y1, y1Wrong := singleChoiceScorer{}.Score(key, answers)
	y2, y2Wrong := multiChoiceScorer{}.Score(key, answers)
	o, oWrong := openScorer{}.Score(key, answers)

	return ScoreResult{
		Total: y1 + y2 + o,
		PerSection: SectionScores{
			SingleChoice: y1,
			MultiChoice:  y2,
			Open:         o,
		},
		Incorrect: IncorrectItems{
			SingleChoice: sortUnique(y1Wrong),
			MultiChoice:  sortUnique(y2Wrong),
			Open:         sortUnique(oWrong),
		},
	}, nil
}

// Positions are compared up to the shorter of the two runs.
func (singleChoiceScorer) Score(key, answers AnswerSheet) (int, []int) {
	want := key.SingleChoice.Answers
	got := ""
	if answers.SingleChoice != nil {
		got = answers.SingleChoice.Answers
	}

	n := min(len(want), len(got))
	score := 0
	var incorrect []int
	for i := 0; i < n; i++ {
		if equalLetter(want[i], got[i]) {
			score++
		} else {
			incorrect = append(incorrect, i+1)
		}
	}
	return score, incorrect
}

func (multiChoiceScorer) Score(key, answers AnswerSheet) (int, []int) {
	var got ItemChoices
	if answers.MultiChoice != nil {
		got = answers.MultiChoice.Answers
	}

	score := 0
	var incorrect []int
	for _, n := range key.MultiChoice.Answers.ItemNumbers() {
		given, ok := got[n]
		if ok && given != "" && strings.EqualFold(key.MultiChoice.Answers[n], given) {
			score++
		} else {
			incorrect = append(incorrect, n)
		}
	}
	return score, incorrect
}

// An open item counts only when both parts match.
func (openScorer) Score(key, answers AnswerSheet) (int, []int) {
	var got OpenAnswers
	if answers.Open != nil {
		got = answers.Open.ItemMap()
	}

	score := 0
	var incorrect []int
	for _, item := range key.Open.Items {
		given, ok := got[item.ItemNo]
		if ok && sameNumber(item.A, given.A) && sameNumber(item.B, given.B) {
			score++
		} else {
			incorrect = append(incorrect, item.ItemNo)
		}
	}
	return score, incorrect
}

// sameNumber compares two values by canonical form. A value that cannot be
// canonicalized never matches.
func sameNumber(want, got string) bool {
	w, err := Normalize(want)
	if err != nil {
		return false
	}
	g, err := Normalize(got)
	if err != nil {
		return false
	}
	return w == g
}

func equalLetter(a, b byte) bool {
	return upper(a) == upper(b)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
