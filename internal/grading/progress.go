package grading

// Progress stages of a submission. Sections are completed in a fixed order.
const (
	StageSingleChoice = 0
	StageMultiChoice  = 1
	StageOpen         = 2
	StageComplete     = 3
)

// Stage reports how far the sheet has progressed: 0 until the single-choice
// section is complete, 1 until the multi-choice section is, 2 until the open
// section is, and 3 once everything is complete. Later sections do not count
// while an earlier one is incomplete.
func Stage(sheet AnswerSheet, layout Layout) int {
	if !layout.Complete(sheet, SectionSingleChoice) {
		return StageSingleChoice
	}
	if !layout.Complete(sheet, SectionMultiChoice) {
		return StageMultiChoice
	}
	if !layout.Complete(sheet, SectionOpen) {
		return StageOpen
	}
	return StageComplete
}

// NextSection returns the section a sheet at the given stage should fill in
// next, and false once the sheet is complete.
func NextSection(stage int) (SectionCode, bool) {
	if stage < 0 || stage >= len(Sections) {
		return "", false
	}
	return Sections[stage], true
}

// Merge returns a copy of s where every section present in patch replaces
// the corresponding section of s.
func (s AnswerSheet) Merge(patch AnswerSheet) AnswerSheet {
	out := s
	if patch.SingleChoice != nil {
		out.SingleChoice = patch.SingleChoice
	}
	if patch.MultiChoice != nil {
		out.MultiChoice = patch.MultiChoice
	}
	if patch.Open != nil {
		out.Open = patch.Open
	}
	return out
}
