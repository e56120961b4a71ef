package problem

import (
	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

// Answer is a submitted response. Text is used by free-response problems,
// Choice by multiple choice, Choices by checklists.
type Answer struct {
	Text    string `json:"text"`
	Choice  *int   `json:"choice,omitempty"`
	Choices []int  `json:"choices,omitempty"`
}

// Verdict is the outcome of grading a well-formed answer.
type Verdict struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

const (
	msgCorrect   = "Correct!"
	msgIncorrect = "Incorrect, try again."
)

func verdict(correct bool) Verdict {
	if correct {
		return Verdict{Correct: true, Message: msgCorrect}
	}
	return Verdict{Correct: false, Message: msgIncorrect}
}

// Grade checks a against the content's solution. Malformed answers are
// returned as rejections; a stored solution that breaks its own invariants
// is a fault.
func Grade(c Content, a Answer) (Verdict, error) {
	switch v := c.(type) {
	case FreeResponse:
		return gradeFreeResponse(v, a.Text)
	case MultipleChoice:
		return gradeMultipleChoice(v, a.Choice)
	case Checklist:
		return gradeChecklist(v, a.Choices)
	}
	return Verdict{}, apperr.Faultf("cannot grade content of type %T", c)
}

func gradeFreeResponse(c FreeResponse, input string) (Verdict, error) {
	if err := CheckRestrictions(c.Restrictions, input); err != nil {
		return Verdict{}, err
	}
	for _, s := range c.Solutions {
		ok, err := CheckSolution(s, input)
		if err != nil {
			return Verdict{}, err
		}
		if ok {
			return verdict(true), nil
		}
	}
	return verdict(false), nil
}

func gradeMultipleChoice(c MultipleChoice, choice *int) (Verdict, error) {
	if c.Solution < 0 || c.Solution >= len(c.Options) {
		return Verdict{}, apperr.Faultf("multiple choice solution %d out of range for %d options", c.Solution, len(c.Options))
	}
	if choice == nil {
		return Verdict{}, apperr.Reject("Please select one of the options")
	}
	if *choice < 0 || *choice >= len(c.Options) {
		return Verdict{}, apperr.Reject("Selected option %d does not exist", *choice)
	}
	return verdict(*choice == c.Solution), nil
}

func gradeChecklist(c Checklist, choices []int) (Verdict, error) {
	want := make(map[int]struct{}, len(c.Solution))
	for _, idx := range c.Solution {
		if idx < 0 || idx >= len(c.Options) {
			return Verdict{}, apperr.Faultf("checklist solution %d out of range for %d options", idx, len(c.Options))
		}
		if _, dup := want[idx]; dup {
			return Verdict{}, apperr.Faultf("checklist solution %d listed twice", idx)
		}
		want[idx] = struct{}{}
	}

	got := make(map[int]struct{}, len(choices))
	for _, idx := range choices {
		if idx < 0 || idx >= len(c.Options) {
			return Verdict{}, apperr.Reject("Selected option %d does not exist", idx)
		}
		if _, dup := got[idx]; dup {
			return Verdict{}, apperr.Reject("Option %d was selected more than once", idx)
		}
		got[idx] = struct{}{}
	}

	if len(got) != len(want) {
		return verdict(false), nil
	}
	for idx := range want {
		if _, ok := got[idx]; !ok {
			return verdict(false), nil
		}
	}
	return verdict(true), nil
}
