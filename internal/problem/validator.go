package problem

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

// ErrUnsupported is returned for restriction and solution kinds that are
// declared but have no defined semantics (the imaginary-number kinds).
var ErrUnsupported = fmt.Errorf("%w: imaginary numbers are not supported", apperr.ErrFault)

// CheckRestriction checks one format rule against raw input. A nil result
// means the input passes; a *apperr.Rejection carries the message to show
// the user; anything else is a fault.
func CheckRestriction(r Restriction, input string) error {
	switch r.Kind {
	case RestrictInteger:
		if _, err := strconv.ParseInt(input, 10, 64); err != nil {
			return apperr.Reject("Input must be a valid integer")
		}
		return nil

	case RestrictNatural:
		// ParseUint has no sign handling; one leading plus is still natural.
		if _, err := strconv.ParseUint(strings.TrimPrefix(input, "+"), 10, 64); err != nil {
			return apperr.Reject("Input must be a natural number")
		}
		return nil

	case RestrictMaxCharacterLength:
		if CharacterCount(input) >= r.Length {
			return apperr.Reject("Input must be fewer than %d characters", r.Length)
		}
		return nil

	case RestrictRealInRange:
		v, ok := parseReal(input)
		if !ok {
			return apperr.Reject("Input must be a real number")
		}
		if r.Start != nil && v < *r.Start {
			return apperr.Reject("Input must be greater than or equal to %s", formatReal(*r.Start))
		}
		if r.End != nil && v > *r.End {
			return apperr.Reject("Input must be less than or equal to %s", formatReal(*r.End))
		}
		return nil

	case RestrictImaginary, RestrictImaginaryInRange:
		return fmt.Errorf("restriction %q: %w", r.Kind, ErrUnsupported)
	}
	return apperr.Faultf("unknown restriction kind %q", r.Kind)
}

// CheckRestrictions applies rs in order and returns the first failure.
// Restrictions after a failing one are not evaluated.
func CheckRestrictions(rs []Restriction, input string) error {
	for _, r := range rs {
		if err := CheckRestriction(r, input); err != nil {
			return err
		}
	}
	return nil
}

// CheckSolution reports whether input satisfies the solution predicate.
// Unparseable numeric input is a mismatch, not an error.
func CheckSolution(s Solution, input string) (bool, error) {
	switch s.Kind {
	case SolveRealEquals:
		v, ok := parseReal(input)
		if !ok {
			return false, nil
		}
		return math.Abs(v-s.Eq) < s.Precision, nil

	case SolveTextEquals:
		return input == s.Text, nil

	case SolveImaginaryEquals:
		return false, fmt.Errorf("solution %q: %w", s.Kind, ErrUnsupported)
	}
	return false, apperr.Faultf("unknown solution kind %q", s.Kind)
}

// CharacterCount counts the characters of input after NFC normalization, so
// a precomposed and a decomposed accent count the same.
func CharacterCount(input string) int {
	return utf8.RuneCountInString(norm.NFC.String(input))
}

// parseReal accepts finite base-10 reals only; NaN and infinities are refused.
func parseReal(input string) (float64, bool) {
	digits := strings.TrimLeft(input, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func formatReal(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
