package problem

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarshalContent_Shape(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{
			name:    "multiple choice",
			content: MultipleChoice{Options: []string{"a", "b"}, Solution: 1},
			want:    `{"kind":"multiple_choice","options":["a","b"],"solution":1}`,
		},
		{
			name:    "checklist",
			content: Checklist{Options: []string{"a", "b", "c"}, Solution: []int{0, 2}},
			want:    `{"kind":"checklist","options":["a","b","c"],"solution":[0,2]}`,
		},
		{
			name: "free response",
			content: FreeResponse{
				Restrictions: []Restriction{{Kind: RestrictInteger}, {Kind: RestrictRealInRange, Start: ptr(0)}},
				Solutions:    []Solution{{Kind: SolveRealEquals, Eq: 3, Precision: 0.1}},
			},
			want: `{"kind":"free_response","restrictions":[{"kind":"integer"},{"kind":"real_in_range","start":0}],"solution":[{"kind":"real_equals","eq":3,"precision":0.1}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalContent(tt.content)
			if err != nil {
				t.Fatalf("MarshalContent() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalContent() = %s, want %s", got, tt.want)
			}

			back, err := UnmarshalContent(got)
			if err != nil {
				t.Fatalf("UnmarshalContent() error = %v", err)
			}
			if diff := cmp.Diff(tt.content, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalContent_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", ``, "required"},
		{"null", `null`, "required"},
		{"unknown kind", `{"kind":"essay","solution":1}`, "unknown content kind"},
		{"missing solution", `{"kind":"multiple_choice","options":["a"]}`, "solution is required"},
		{"wrong solution type", `{"kind":"multiple_choice","options":["a"],"solution":[1]}`, "multiple choice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalContent([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("UnmarshalContent() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestProblemJSON(t *testing.T) {
	p := Problem{
		ID:              4,
		OwnerID:         9,
		Recommendations: 2,
		Topic:           TopicTrivia,
		Prompt:          "Capital of France?",
		Content:         MultipleChoice{Options: []string{"Paris", "Rome"}, Solution: 0},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"tags":[]`) {
		t.Errorf("nil tags should encode as an empty array: %s", data)
	}

	var got Problem
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	p.Tags = []string{}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("problem mismatch (-want +got):\n%s", diff)
	}
}

func TestTopic_UnmarshalRejectsUnknown(t *testing.T) {
	var topic Topic
	if err := json.Unmarshal([]byte(`"Art"`), &topic); err == nil {
		t.Error("Unmarshal() should reject an unknown topic")
	}
	if err := json.Unmarshal([]byte(`"Logic"`), &topic); err != nil || topic != TopicLogic {
		t.Errorf("Unmarshal() = %q, %v; want Logic", topic, err)
	}
}
