package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FormatReason classifies why a piece of human input was rejected.
type FormatReason string

const (
	ReasonEmpty           FormatReason = "empty"
	ReasonLength          FormatReason = "length"
	ReasonAlphabet        FormatReason = "alphabet"
	ReasonToken           FormatReason = "token"
	ReasonMissing         FormatReason = "missing"
	ReasonExtra           FormatReason = "extra"
	ReasonUnknownItem     FormatReason = "unknown_item"
	ReasonNoMatches       FormatReason = "no_matches"
	ReasonInvalidNumber   FormatReason = "invalid_number"
	ReasonZeroDenominator FormatReason = "zero_denominator"
)

// FormatError reports input that could not be interpreted. It is recoverable:
// the caller shows Message to the user and asks for corrected input.
type FormatError struct {
	Section string       `json:"section,omitempty"`
	Reason  FormatReason `json:"reason"`
	Items   []string     `json:"items,omitempty"`
	Message string       `json:"message"`
}

func (fe *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if fe.Section != "" {
		b.WriteString(" in section ")
		b.WriteString(fe.Section)
	}
	b.WriteString(": ")
	b.WriteString(fe.Message)
	if len(fe.Items) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(fe.Items, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// NewFormatError creates a format error without a section; parsers attach it.
func NewFormatError(reason FormatReason, message string, items ...string) *FormatError {
	return &FormatError{
		Reason:  reason,
		Message: message,
		Items:   items,
	}
}

// InSection returns a copy of the error tagged with the section code.
func (fe *FormatError) InSection(section string) *FormatError {
	cp := *fe
	cp.Section = section
	return &cp
}

// ScoringError is raised when a submission cannot be scored because the
// answer key is incomplete. It is a precondition failure, not user error.
type ScoringError struct {
	Missing []string `json:"missing"`
}

func (se *ScoringError) Error() string {
	return fmt.Sprintf("answer key missing sections: %s", strings.Join(se.Missing, ", "))
}

// IsFormatError reports whether err wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsScoringError reports whether err wraps a *ScoringError.
func IsScoringError(err error) bool {
	var se *ScoringError
	return errors.As(err, &se)
}

// AsFormatError extracts the *FormatError from err's chain.
func AsFormatError(err error) (*FormatError, bool) {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
