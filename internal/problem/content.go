package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the content variants.
type Kind string

const (
	KindFreeResponse   Kind = "free_response"
	KindMultipleChoice Kind = "multiple_choice"
	KindChecklist      Kind = "checklist"
)

// Valid reports whether k names a content variant.
func (k Kind) Valid() bool {
	switch k {
	case KindFreeResponse, KindMultipleChoice, KindChecklist:
		return true
	}
	return false
}

// Content is the answerable part of a problem. It is one of FreeResponse,
// MultipleChoice or Checklist.
type Content interface {
	Kind() Kind
	sealed()
}

// FreeResponse accepts typed input. Restrictions constrain the input format
// and Solutions are alternative predicates, any of which marks it correct.
type FreeResponse struct {
	Restrictions []Restriction
	Solutions    []Solution
}

// MultipleChoice has exactly one correct option.
type MultipleChoice struct {
	Options  []string
	Solution int
}

// Checklist is answered by selecting exactly the set of correct options.
type Checklist struct {
	Options  []string
	Solution []int
}

func (FreeResponse) Kind() Kind   { return KindFreeResponse }
func (MultipleChoice) Kind() Kind { return KindMultipleChoice }
func (Checklist) Kind() Kind      { return KindChecklist }

func (FreeResponse) sealed()   {}
func (MultipleChoice) sealed() {}
func (Checklist) sealed()      {}

// RestrictionKind names an input format rule for free-response problems.
type RestrictionKind string

const (
	RestrictInteger            RestrictionKind = "integer"
	RestrictNatural            RestrictionKind = "natural"
	RestrictMaxCharacterLength RestrictionKind = "max_character_length"
	RestrictRealInRange        RestrictionKind = "real_in_range"
	RestrictImaginary          RestrictionKind = "imaginary"
	RestrictImaginaryInRange   RestrictionKind = "imaginary_in_range"
)

// Restriction is a format rule. Length applies to max_character_length;
// Start and End apply to the range kinds and are independently optional.
type Restriction struct {
	Kind   RestrictionKind `json:"kind"`
	Length int             `json:"length,omitempty"`
	Start  *float64        `json:"start,omitempty"`
	End    *float64        `json:"end,omitempty"`
}

// SolutionKind names a correctness predicate for free-response problems.
type SolutionKind string

const (
	SolveRealEquals      SolutionKind = "real_equals"
	SolveImaginaryEquals SolutionKind = "imaginary_equals"
	SolveTextEquals      SolutionKind = "text_equals"
)

// Solution is a correctness predicate. Eq and Precision apply to the numeric
// kinds, Text to text_equals.
type Solution struct {
	Kind      SolutionKind `json:"kind"`
	Eq        float64      `json:"eq,omitempty"`
	Precision float64      `json:"precision,omitempty"`
	Text      string       `json:"text,omitempty"`
}

// contentEnvelope is the persisted and wire form of Content. Solution holds
// an index, an index list or a predicate list depending on Kind.
type contentEnvelope struct {
	Kind         Kind            `json:"kind"`
	Restrictions []Restriction   `json:"restrictions,omitempty"`
	Options      []string        `json:"options,omitempty"`
	Solution     json.RawMessage `json:"solution"`
}

// MarshalContent encodes c into its JSON envelope.
func MarshalContent(c Content) ([]byte, error) {
	var (
		env contentEnvelope
		sol any
	)
	switch v := c.(type) {
	case FreeResponse:
		env.Kind = KindFreeResponse
		env.Restrictions = v.Restrictions
		if env.Restrictions == nil {
			env.Restrictions = []Restriction{}
		}
		sol = v.Solutions
		if v.Solutions == nil {
			sol = []Solution{}
		}
	case MultipleChoice:
		env.Kind = KindMultipleChoice
		env.Options = v.Options
		sol = v.Solution
	case Checklist:
		env.Kind = KindChecklist
		env.Options = v.Options
		sol = v.Solution
		if v.Solution == nil {
			sol = []int{}
		}
	case nil:
		return nil, errors.New("content is nil")
	default:
		return nil, fmt.Errorf("unknown content type %T", c)
	}

	raw, err := json.Marshal(sol)
	if err != nil {
		return nil, fmt.Errorf("encode solution: %w", err)
	}
	env.Solution = raw
	return json.Marshal(env)
}

// UnmarshalContent decodes a JSON envelope produced by MarshalContent.
func UnmarshalContent(data []byte) (Content, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.New("content is required")
	}
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if len(env.Solution) == 0 {
		return nil, errors.New("content solution is required")
	}

	switch env.Kind {
	case KindFreeResponse:
		var sols []Solution
		if err := json.Unmarshal(env.Solution, &sols); err != nil {
			return nil, fmt.Errorf("decode free response solution: %w", err)
		}
		return FreeResponse{Restrictions: env.Restrictions, Solutions: sols}, nil
	case KindMultipleChoice:
		var idx int
		if err := json.Unmarshal(env.Solution, &idx); err != nil {
			return nil, fmt.Errorf("decode multiple choice solution: %w", err)
		}
		return MultipleChoice{Options: env.Options, Solution: idx}, nil
	case KindChecklist:
		var idx []int
		if err := json.Unmarshal(env.Solution, &idx); err != nil {
			return nil, fmt.Errorf("decode checklist solution: %w", err)
		}
		return Checklist{Options: env.Options, Solution: idx}, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", env.Kind)
	}
}
