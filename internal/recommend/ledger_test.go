package recommend_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/platform/apperr"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

func TestApply_RecommendTwice(t *testing.T) {
	u := account.User{ID: 1, Recommended: account.NewIDSet()}
	p := problem.Problem{ID: 10, Recommendations: 4}

	u1, p1, err := recommend.Apply(u, p, recommend.Recommend)
	if err != nil {
		t.Fatalf("Apply(Recommend) error = %v", err)
	}
	if p1.Recommendations != 5 {
		t.Errorf("Recommendations = %d, want 5", p1.Recommendations)
	}
	if !u1.Recommended.Has(10) {
		t.Error("user set should hold the problem id")
	}

	u2, p2, err := recommend.Apply(u1, p1, recommend.Recommend)
	if !errors.Is(err, recommend.ErrAlreadyRecommended) {
		t.Fatalf("second Apply(Recommend) error = %v, want ErrAlreadyRecommended", err)
	}
	if _, ok := apperr.AsRejection(err); !ok {
		t.Error("ErrAlreadyRecommended should be a rejection")
	}
	if p2.Recommendations != 5 || u2.Recommended.Len() != 1 {
		t.Errorf("rejected toggle changed state: count %d, set %v", p2.Recommendations, u2.Recommended.Sorted())
	}
}

func TestApply_RoundTrip(t *testing.T) {
	u := account.User{ID: 1, Recommended: account.NewIDSet(3)}
	p := problem.Problem{ID: 10, Recommendations: 7}

	u1, p1, err := recommend.Apply(u, p, recommend.Recommend)
	if err != nil {
		t.Fatalf("Apply(Recommend) error = %v", err)
	}
	u2, p2, err := recommend.Apply(u1, p1, recommend.Undo)
	if err != nil {
		t.Fatalf("Apply(Undo) error = %v", err)
	}

	if p2.Recommendations != 7 {
		t.Errorf("Recommendations = %d, want 7", p2.Recommendations)
	}
	if u2.Recommended.Has(10) || !u2.Recommended.Has(3) || u2.Recommended.Len() != 1 {
		t.Errorf("set = %v, want [3]", u2.Recommended.Sorted())
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	u := account.User{ID: 1, Recommended: account.NewIDSet()}
	p := problem.Problem{ID: 10}

	if _, _, err := recommend.Apply(u, p, recommend.Recommend); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if u.Recommended.Has(10) {
		t.Error("Apply() mutated the caller's set")
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name      string
		set       account.IDSet
		count     int
		intent    recommend.Intent
		wantErr   error
		wantFault bool
	}{
		{"undo without recommend", account.NewIDSet(), 3, recommend.Undo, recommend.ErrNotRecommended, false},
		{"negative before recommend", account.NewIDSet(), -1, recommend.Recommend, recommend.ErrNegativeCount, true},
		{"undo below zero", account.NewIDSet(10), 0, recommend.Undo, recommend.ErrNegativeCount, true},
		{"unknown intent", account.NewIDSet(), 0, recommend.Intent(9), apperr.ErrFault, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := account.User{ID: 1, Recommended: tt.set}
			p := problem.Problem{ID: 10, Recommendations: tt.count}

			_, got, err := recommend.Apply(u, p, tt.intent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if apperr.IsFault(err) != tt.wantFault {
				t.Errorf("IsFault() = %v, want %v", apperr.IsFault(err), tt.wantFault)
			}
			if got.Recommendations != tt.count {
				t.Errorf("Recommendations = %d, want unchanged %d", got.Recommendations, tt.count)
			}
		})
	}
}

func TestIntent_String(t *testing.T) {
	if recommend.Recommend.String() != "recommend" || recommend.Undo.String() != "undo" {
		t.Errorf("String() = %q, %q", recommend.Recommend, recommend.Undo)
	}
}
