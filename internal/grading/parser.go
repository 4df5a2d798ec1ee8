package grading

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/SAP-F-2025/answer-scoring-service/internal/errors"
)

// Alphabet is the set of letters a choice section accepts.
type Alphabet string

const (
	SingleChoiceAlphabet Alphabet = "ABCD"
	MultiChoiceAlphabet  Alphabet = "ABCDE"
)

// Contains reports whether letter belongs to the alphabet.
func (a Alphabet) Contains(letter string) bool {
	return len(letter) == 1 && strings.Contains(string(a), letter)
}

// Range renders the alphabet as "A-D".
func (a Alphabet) Range() string {
	if len(a) == 0 {
		return ""
	}
	return fmt.Sprintf("%c-%c", a[0], a[len(a)-1])
}

// invalidLetters returns the distinct letters of s outside the alphabet, in
// order of first appearance.
func (a Alphabet) invalidLetters(s string) []string {
	seen := make(map[rune]bool)
	var out []string
	for _, r := range s {
		if !strings.ContainsRune(string(a), r) && !seen[r] {
			seen[r] = true
			out = append(out, string(r))
		}
	}
	return out
}

const (
	maxMissingSingleChoice = 5
	maxMissingOpenPairs    = 8
)

var (
	separatorPattern   = regexp.MustCompile(`[\s,;]+`)
	choiceTokenPattern = regexp.MustCompile(`^(\d+)[=-]([A-Z])$`)
	openPairPattern    = regexp.MustCompile(`(\d{2})\s*([abAB])\s*[:=]\s*([^\s,;]+)`)
	nonLetterPattern   = regexp.MustCompile(`[^A-Z]`)
	digitPattern       = regexp.MustCompile(`\d`)
)

// SingleChoiceParser reads a single-choice section.
type SingleChoiceParser struct {
	Alphabet Alphabet
}

// MultiChoiceParser reads a multi-choice section.
type MultiChoiceParser struct {
	Alphabet Alphabet
}

// ParseSingleChoice reads expectedLen single-choice answers using letters A-D.
func ParseSingleChoice(raw string, expectedLen int) (string, error) {
	return SingleChoiceParser{Alphabet: SingleChoiceAlphabet}.Parse(raw, expectedLen)
}

// ParseMultiChoice reads one A-E letter for each of the given item numbers.
func ParseMultiChoice(raw string, itemNumbers []int) (ItemChoices, error) {
	return MultiChoiceParser{Alphabet: MultiChoiceAlphabet}.Parse(raw, itemNumbers)
}

// Parse accepts either a compact run of letters ("ABCD...") or explicit
// pairs ("1=A, 2-B"). The compact reading is tried first; it only applies
// when the text carries no item numbers.
func (p SingleChoiceParser) Parse(raw string, expectedLen int) (string, error) {
	letters, err := p.parse(raw, expectedLen)
	if err != nil {
		return "", err.InSection(string(SectionSingleChoice))
	}
	return letters, nil
}

func (p SingleChoiceParser) parse(raw string, expectedLen int) (string, *apperrors.FormatError) {
	text, err := prepareChoiceText(raw)
	if err != nil {
		return "", err
	}

	if letters, ok := compactLetters(text, expectedLen); ok {
		return letters, p.checkAlphabet(letters)
	} else if !digitPattern.MatchString(text) {
		return "", apperrors.NewFormatError(apperrors.ReasonLength,
			fmt.Sprintf("expected %d answers, got %d", expectedLen, len(letters)))
	}

	choices, err := parseChoiceTokens(text)
	if err != nil {
		return "", err
	}
	if err := checkItemSet(choices, itemRange(1, expectedLen), maxMissingSingleChoice); err != nil {
		return "", err
	}

	var b strings.Builder
	for n := 1; n <= expectedLen; n++ {
		b.WriteString(choices[n])
	}
	letters := b.String()
	return letters, p.checkAlphabet(letters)
}

func (p SingleChoiceParser) checkAlphabet(letters string) *apperrors.FormatError {
	if bad := p.Alphabet.invalidLetters(letters); len(bad) > 0 {
		return apperrors.NewFormatError(apperrors.ReasonAlphabet,
			fmt.Sprintf("only letters %s are allowed", p.Alphabet.Range()), bad...)
	}
	return nil
}

// Parse accepts either exactly len(itemNumbers) letters, assigned to the
// item numbers in the given order, or explicit pairs ("33=A 34=C 35=E").
func (p MultiChoiceParser) Parse(raw string, itemNumbers []int) (ItemChoices, error) {
	choices, err := p.parse(raw, itemNumbers)
	if err != nil {
		return nil, err.InSection(string(SectionMultiChoice))
	}
	return choices, nil
}

func (p MultiChoiceParser) parse(raw string, itemNumbers []int) (ItemChoices, *apperrors.FormatError) {
	text, err := prepareChoiceText(raw)
	if err != nil {
		return nil, err
	}

	if letters, ok := compactLetters(text, len(itemNumbers)); ok {
		if bad := p.Alphabet.invalidLetters(letters); len(bad) > 0 {
			return nil, apperrors.NewFormatError(apperrors.ReasonAlphabet,
				fmt.Sprintf("only letters %s are allowed", p.Alphabet.Range()), bad...)
		}
		choices := make(ItemChoices, len(itemNumbers))
		for i, n := range itemNumbers {
			choices[n] = letters[i : i+1]
		}
		return choices, nil
	} else if !digitPattern.MatchString(text) {
		return nil, apperrors.NewFormatError(apperrors.ReasonLength,
			fmt.Sprintf("expected %d answers, got %d", len(itemNumbers), len(letters)))
	}

	choices, err := parseChoiceTokens(text)
	if err != nil {
		return nil, err
	}
	var bad []string
	for _, n := range choices.ItemNumbers() {
		if !p.Alphabet.Contains(choices[n]) {
			bad = append(bad, fmt.Sprintf("%d=%s", n, choices[n]))
		}
	}
	if len(bad) > 0 {
		return nil, apperrors.NewFormatError(apperrors.ReasonAlphabet,
			fmt.Sprintf("only letters %s are allowed", p.Alphabet.Range()), bad...)
	}
	if err := checkItemSet(choices, itemNumbers, 0); err != nil {
		return nil, err
	}
	return choices, nil
}

// ParseOpenItems reads "<item><a|b>=<value>" pairs from anywhere in the text,
// in any order and across lines, e.g. "36a=12 36b=-3/4; 37a:0.5". Item
// numbers are two digits. Every value is canonicalized with Normalize and
// every item of itemNumbers must receive both parts.
func ParseOpenItems(raw string, itemNumbers []int) (OpenAnswers, error) {
	answers, err := parseOpenItems(raw, itemNumbers)
	if err != nil {
		return nil, err.InSection(string(SectionOpen))
	}
	return answers, nil
}

func parseOpenItems(raw string, itemNumbers []int) (OpenAnswers, *apperrors.FormatError) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, emptyInput()
	}

	matches := openPairPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, apperrors.NewFormatError(apperrors.ReasonNoMatches,
			"expected pairs such as 36a=12 36b=-3/4")
	}

	expected := make(map[int]bool, len(itemNumbers))
	for _, n := range itemNumbers {
		expected[n] = true
	}

	answers := make(OpenAnswers)
	for _, m := range matches {
		n, _ := strconv.Atoi(m[1])
		if !expected[n] {
			return nil, apperrors.NewFormatError(apperrors.ReasonUnknownItem, "unknown item number", m[1])
		}
		value, err := Normalize(m[3])
		if err != nil {
			fe, _ := apperrors.AsFormatError(err)
			return nil, fe
		}
		pair := answers[n]
		if strings.ToLower(m[2]) == PartA {
			pair.A = value
		} else {
			pair.B = value
		}
		answers[n] = pair
	}

	ordered := append([]int(nil), itemNumbers...)
	sort.Ints(ordered)
	var missing []string
	for _, n := range ordered {
		pair := answers[n]
		if pair.A == "" {
			missing = append(missing, fmt.Sprintf("%d%s", n, PartA))
		}
		if pair.B == "" {
			missing = append(missing, fmt.Sprintf("%d%s", n, PartB))
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewFormatError(apperrors.ReasonMissing,
			fmt.Sprintf("%d values missing", len(missing)), limit(missing, maxMissingOpenPairs)...)
	}
	return answers, nil
}

// ParseSection parses raw text for one section according to the layout and
// returns a sheet holding only that section, ready to be merged into a draft.
func ParseSection(code SectionCode, raw string, layout Layout) (AnswerSheet, error) {
	switch code {
	case SectionSingleChoice:
		letters, err := SingleChoiceParser{Alphabet: layout.Alphabet(code)}.Parse(raw, layout.SingleChoiceCount)
		if err != nil {
			return AnswerSheet{}, err
		}
		return AnswerSheet{SingleChoice: &SingleChoiceSection{Answers: letters}}, nil
	case SectionMultiChoice:
		choices, err := MultiChoiceParser{Alphabet: layout.Alphabet(code)}.Parse(raw, layout.MultiChoiceItems)
		if err != nil {
			return AnswerSheet{}, err
		}
		return AnswerSheet{MultiChoice: &MultiChoiceSection{Answers: choices}}, nil
	case SectionOpen:
		answers, err := ParseOpenItems(raw, layout.OpenItems)
		if err != nil {
			return AnswerSheet{}, err
		}
		return AnswerSheet{Open: NewOpenSection(answers)}, nil
	}
	return AnswerSheet{}, fmt.Errorf("unknown section code %q", code)
}

func prepareChoiceText(raw string) (string, *apperrors.FormatError) {
	text := strings.ToUpper(strings.TrimSpace(raw))
	if text == "" {
		return "", emptyInput()
	}
	return text, nil
}

// compactLetters strips everything but letters. The result is usable only
// when the text has no digits and exactly n letters remain.
func compactLetters(text string, n int) (string, bool) {
	letters := nonLetterPattern.ReplaceAllString(text, "")
	return letters, len(letters) == n && !digitPattern.MatchString(text)
}

func parseChoiceTokens(text string) (ItemChoices, *apperrors.FormatError) {
	choices := make(ItemChoices)
	for _, tok := range separatorPattern.Split(text, -1) {
		if tok == "" {
			continue
		}
		m := choiceTokenPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, apperrors.NewFormatError(apperrors.ReasonToken,
				"expected pairs such as 1=A or 1-A", tok)
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, apperrors.NewFormatError(apperrors.ReasonToken, "item number out of range", tok)
		}
		choices[n] = m[2]
	}
	return choices, nil
}

// checkItemSet verifies the parsed item numbers equal the expected set.
// maxMissing caps how many missing items are listed; 0 lists all of them.
func checkItemSet(choices ItemChoices, expected []int, maxMissing int) *apperrors.FormatError {
	want := make(map[int]bool, len(expected))
	var missing []int
	for _, n := range expected {
		want[n] = true
		if _, ok := choices[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		items := itoaAll(missing)
		if maxMissing > 0 {
			items = limit(items, maxMissing)
		}
		return apperrors.NewFormatError(apperrors.ReasonMissing,
			fmt.Sprintf("%d items missing", len(missing)), items...)
	}

	var extra []int
	for _, n := range choices.ItemNumbers() {
		if !want[n] {
			extra = append(extra, n)
		}
	}
	if len(extra) > 0 {
		return apperrors.NewFormatError(apperrors.ReasonExtra, "unexpected item numbers", itoaAll(extra)...)
	}
	return nil
}

func emptyInput() *apperrors.FormatError {
	return apperrors.NewFormatError(apperrors.ReasonEmpty, "answer is empty")
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
