package grading

import (
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	apperrors "github.com/SAP-F-2025/answer-scoring-service/internal/errors"
)

var (
	decimalPattern  = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	fractionPattern = regexp.MustCompile(`^(-?\d+)/(\d+)$`)
)

// Normalize converts a numeric answer into its canonical form so that
// equivalent spellings compare equal as strings.
//
// Decimals lose trailing fractional zeros and a bare trailing point
// ("3.50" -> "3.5", "4.0" -> "4"). Fractions are reduced with the sign on the
// numerator ("4/8" -> "1/2", "-6/4" -> "-3/2"); a fraction with denominator 1
// after reduction renders as an integer. Zero is always "0".
func Normalize(raw string) (string, error) {
	s := compactNumber(raw)

	if decimalPattern.MatchString(s) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return "", apperrors.NewFormatError(apperrors.ReasonInvalidNumber, "invalid number format", raw)
		}
		return d.String(), nil
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, _ := new(big.Int).SetString(m[1], 10)
		den, _ := new(big.Int).SetString(m[2], 10)
		if den.Sign() == 0 {
			return "", apperrors.NewFormatError(apperrors.ReasonZeroDenominator, "denominator cannot be zero", raw)
		}
		return new(big.Rat).SetFrac(num, den).RatString(), nil
	}

	return "", apperrors.NewFormatError(apperrors.ReasonInvalidNumber, "invalid number format", raw)
}

// compactNumber trims the value and drops every whitespace rune inside it.
func compactNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == '−' {
			return '-'
		}
		return r
	}, raw)
}
