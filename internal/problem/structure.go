package problem

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

const (
	minChoiceOptions    = 2
	minChecklistOptions = 1
)

// problemValidate checks the scalar fields of NewProblem. Content is checked
// by ValidateContent.
var problemValidate *validator.Validate

func init() {
	problemValidate = validator.New(validator.WithRequiredStructEnabled())
	problemValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// newProblemRules carries the validation tags for NewProblem.
type newProblemRules struct {
	Topic  Topic    `json:"topic" validate:"required,oneof=Math Trivia Logic"`
	Tags   []string `json:"tags" validate:"max=16,dive,required,max=32"`
	Prompt string   `json:"prompt" validate:"required,max=4000"`
}

// ValidateNew checks everything about np that must hold before insert.
func ValidateNew(np NewProblem) error {
	err := problemValidate.Struct(newProblemRules{Topic: np.Topic, Tags: np.Tags, Prompt: np.Prompt})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Reject("Field %s is invalid (%s)", fe.Field(), fe.Tag())
		}
		return apperr.Faultf("validate problem: %v", err)
	}
	return ValidateContent(np.Content)
}

// ValidateContent enforces the structural invariants of each content kind.
// Imaginary kinds are refused here so the unsupported faults of the
// validator cannot be reached through stored problems.
func ValidateContent(c Content) error {
	switch v := c.(type) {
	case MultipleChoice:
		if len(v.Options) < minChoiceOptions {
			return apperr.Reject("Please provide at least %d answer options", minChoiceOptions)
		}
		if err := checkOptions(v.Options); err != nil {
			return err
		}
		if v.Solution < 0 || v.Solution >= len(v.Options) {
			return apperr.Reject("Solution must be one of the %d options", len(v.Options))
		}
		return nil

	case Checklist:
		if len(v.Options) < minChecklistOptions {
			return apperr.Reject("Please provide at least %d answer option", minChecklistOptions)
		}
		if err := checkOptions(v.Options); err != nil {
			return err
		}
		seen := make(map[int]struct{}, len(v.Solution))
		for _, idx := range v.Solution {
			if idx < 0 || idx >= len(v.Options) {
				return apperr.Reject("Solution %d must be one of the %d options", idx, len(v.Options))
			}
			if _, dup := seen[idx]; dup {
				return apperr.Reject("Solution %d is listed more than once", idx)
			}
			seen[idx] = struct{}{}
		}
		return nil

	case FreeResponse:
		return validateFreeResponse(v)

	case nil:
		return apperr.Reject("Please select an answer type")
	}
	return apperr.Faultf("unknown content type %T", c)
}

func checkOptions(options []string) error {
	for i, o := range options {
		if strings.TrimSpace(o) == "" {
			return apperr.Reject("Option %d is empty", i)
		}
	}
	return nil
}

func validateFreeResponse(v FreeResponse) error {
	for _, r := range v.Restrictions {
		switch r.Kind {
		case RestrictInteger, RestrictNatural:
		case RestrictMaxCharacterLength:
			if r.Length <= 0 {
				return apperr.Reject("Maximum character length must be positive")
			}
		case RestrictRealInRange:
			if r.Start != nil && r.End != nil && *r.Start > *r.End {
				return apperr.Reject("Range start must not exceed range end")
			}
		case RestrictImaginary, RestrictImaginaryInRange:
			return apperr.Reject("Imaginary number restrictions are not supported yet")
		default:
			return apperr.Reject("Unknown restriction %q", r.Kind)
		}
	}

	if len(v.Solutions) == 0 {
		return apperr.Reject("Please provide at least one solution")
	}
	for _, s := range v.Solutions {
		switch s.Kind {
		case SolveRealEquals:
			if !(s.Precision > 0) {
				return apperr.Reject("Solution precision must be positive")
			}
		case SolveTextEquals:
		case SolveImaginaryEquals:
			return apperr.Reject("Imaginary number solutions are not supported yet")
		default:
			return apperr.Reject("Unknown solution %q", s.Kind)
		}
	}
	return nil
}
