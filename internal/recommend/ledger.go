// Package recommend keeps a user's recommended-problem set and each
// problem's recommendation counter consistent.
//
// The invariant: for every problem, Recommendations equals the number of
// users whose set holds its id. Apply computes one toggle on copies; Store
// persists both sides of it atomically.
package recommend

import (
	"fmt"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/platform/apperr"
	"github.com/p-n-ai/akshar/internal/problem"
)

// Intent is the requested direction of a toggle.
type Intent int

const (
	Recommend Intent = iota + 1
	Undo
)

func (i Intent) String() string {
	switch i {
	case Recommend:
		return "recommend"
	case Undo:
		return "undo"
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

var (
	ErrAlreadyRecommended error = &apperr.Rejection{Message: "You already recommended this problem"}
	ErrNotRecommended     error = &apperr.Rejection{Message: "You have not recommended this problem"}
	ErrUnknownUser        error = &apperr.Rejection{Message: "Could not find session user"}
	ErrUnknownProblem     error = problem.ErrNotFound

	// ErrNegativeCount means storage already violated the invariant.
	ErrNegativeCount = fmt.Errorf("%w: negative recommendation count", apperr.ErrFault)
)

// Apply returns updated copies of u and p after the toggle. The inputs are
// never mutated, and a rejection or fault leaves nothing to persist.
func Apply(u account.User, p problem.Problem, intent Intent) (account.User, problem.Problem, error) {
	if p.Recommendations < 0 {
		return u, p, fmt.Errorf("%w: problem %d has %d", ErrNegativeCount, p.ID, p.Recommendations)
	}

	has := u.Recommended.Has(p.ID)
	next := u.Clone()

	switch intent {
	case Recommend:
		if has {
			return u, p, ErrAlreadyRecommended
		}
		next.Recommended.Add(p.ID)
		p.Recommendations++
	case Undo:
		if !has {
			return u, p, ErrNotRecommended
		}
		if p.Recommendations == 0 {
			return u, p, fmt.Errorf("%w: problem %d would drop below zero", ErrNegativeCount, p.ID)
		}
		next.Recommended.Remove(p.ID)
		p.Recommendations--
	default:
		return u, p, apperr.Faultf("unknown toggle intent %d", int(intent))
	}

	return next, p, nil
}
