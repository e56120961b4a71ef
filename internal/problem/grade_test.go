package problem

import (
	"testing"

	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

func intp(v int) *int { return &v }

func TestGrade_Checklist(t *testing.T) {
	c := Checklist{Options: []string{"2", "3", "4", "5"}, Solution: []int{0, 2}}

	tests := []struct {
		name    string
		choices []int
		want    bool
	}{
		{"exact set", []int{0, 2}, true},
		{"exact set reordered", []int{2, 0}, true},
		{"partial selection", []int{0}, false},
		{"superset", []int{0, 1, 2}, false},
		{"disjoint", []int{1, 3}, false},
		{"nothing selected", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grade(c, Answer{Choices: tt.choices})
			if err != nil {
				t.Fatalf("Grade() error = %v", err)
			}
			if got.Correct != tt.want {
				t.Errorf("Correct = %v, want %v", got.Correct, tt.want)
			}
		})
	}
}

func TestGrade_ChecklistEmptySolution(t *testing.T) {
	c := Checklist{Options: []string{"a", "b"}, Solution: []int{}}
	got, err := Grade(c, Answer{})
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if !got.Correct {
		t.Error("selecting nothing should be correct when nothing is a solution")
	}
}

func TestGrade_ChecklistRejections(t *testing.T) {
	c := Checklist{Options: []string{"a", "b"}, Solution: []int{1}}

	for name, choices := range map[string][]int{
		"out of range": {2},
		"negative":     {-1},
		"duplicate":    {1, 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Grade(c, Answer{Choices: choices})
			if _, ok := apperr.AsRejection(err); !ok {
				t.Errorf("Grade() error = %v, want rejection", err)
			}
		})
	}
}

func TestGrade_ChecklistCorruptSolution(t *testing.T) {
	c := Checklist{Options: []string{"a"}, Solution: []int{3}}
	_, err := Grade(c, Answer{Choices: []int{0}})
	if !apperr.IsFault(err) {
		t.Errorf("Grade() error = %v, want fault", err)
	}
}

func TestGrade_MultipleChoice(t *testing.T) {
	c := MultipleChoice{Options: []string{"Lisbon", "Madrid", "Paris"}, Solution: 2}

	got, err := Grade(c, Answer{Choice: intp(2)})
	if err != nil || !got.Correct {
		t.Errorf("Grade(2) = %+v, %v; want correct", got, err)
	}

	got, err = Grade(c, Answer{Choice: intp(0)})
	if err != nil || got.Correct {
		t.Errorf("Grade(0) = %+v, %v; want incorrect", got, err)
	}

	if _, err := Grade(c, Answer{Choice: intp(3)}); err == nil {
		t.Error("Grade(3) should reject an option that does not exist")
	}
	if _, err := Grade(c, Answer{}); err == nil {
		t.Error("Grade() should reject a missing choice")
	}
}

func TestGrade_MultipleChoiceCorruptSolution(t *testing.T) {
	c := MultipleChoice{Options: []string{"a", "b"}, Solution: 5}
	_, err := Grade(c, Answer{Choice: intp(0)})
	if !apperr.IsFault(err) {
		t.Errorf("Grade() error = %v, want fault", err)
	}
}

func TestGrade_FreeResponse(t *testing.T) {
	c := FreeResponse{
		Restrictions: []Restriction{{Kind: RestrictRealInRange, Start: ptr(0), End: ptr(10)}},
		Solutions: []Solution{
			{Kind: SolveRealEquals, Eq: 3, Precision: 0.1},
			{Kind: SolveRealEquals, Eq: 7, Precision: 0.1},
		},
	}

	tests := []struct {
		name       string
		input      string
		want       bool
		wantReject bool
	}{
		{"first solution", "3.05", true, false},
		{"second solution", "7", true, false},
		{"no solution", "5", false, false},
		{"format rejection", "11", false, true},
		{"not a number", "x", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grade(c, Answer{Text: tt.input})
			if tt.wantReject {
				if _, ok := apperr.AsRejection(err); !ok {
					t.Fatalf("Grade() error = %v, want rejection", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Grade() error = %v", err)
			}
			if got.Correct != tt.want {
				t.Errorf("Correct = %v, want %v", got.Correct, tt.want)
			}
		})
	}
}

func TestGrade_FreeResponseText(t *testing.T) {
	c := FreeResponse{
		Restrictions: []Restriction{{Kind: RestrictMaxCharacterLength, Length: 20}},
		Solutions:    []Solution{{Kind: SolveTextEquals, Text: "Canberra"}},
	}
	got, err := Grade(c, Answer{Text: "Canberra"})
	if err != nil || !got.Correct {
		t.Errorf("Grade() = %+v, %v; want correct", got, err)
	}
	got, err = Grade(c, Answer{Text: "Sydney"})
	if err != nil || got.Correct {
		t.Errorf("Grade() = %+v, %v; want incorrect", got, err)
	}
}
