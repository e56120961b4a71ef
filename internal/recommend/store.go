package recommend

import (
	"context"
	"errors"
	"sync"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/problem"
)

// UpdateFunc computes the new state of a user and a problem. Returning an
// error aborts the update without persisting anything.
type UpdateFunc func(u account.User, p problem.Problem) (account.User, problem.Problem, error)

// Store runs fn on the current user and problem records and persists both
// results together, or neither. Concurrent updates touching the same user or
// problem are serialized.
type Store interface {
	Update(ctx context.Context, userID, problemID int64, fn UpdateFunc) (account.User, problem.Problem, error)
}

// MemoryStore serializes updates over the in-memory account and problem
// stores with one mutex.
type MemoryStore struct {
	mu       sync.Mutex
	users    *account.MemoryStore
	problems *problem.MemoryStore
}

func NewMemoryStore(users *account.MemoryStore, problems *problem.MemoryStore) *MemoryStore {
	return &MemoryStore{users: users, problems: problems}
}

func (s *MemoryStore) Update(ctx context.Context, userID, problemID int64, fn UpdateFunc) (account.User, problem.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return account.User{}, problem.Problem{}, translate(err)
	}
	p, err := s.problems.Get(ctx, problemID)
	if err != nil {
		return account.User{}, problem.Problem{}, translate(err)
	}

	nu, np, err := fn(u, p)
	if err != nil {
		return account.User{}, problem.Problem{}, err
	}

	// Both records were just read under the lock, so neither write can miss.
	if err := s.users.SetRecommended(nu.ID, nu.Recommended); err != nil {
		return account.User{}, problem.Problem{}, err
	}
	if err := s.problems.SetRecommendations(np.ID, np.Recommendations); err != nil {
		_ = s.users.SetRecommended(u.ID, u.Recommended)
		return account.User{}, problem.Problem{}, err
	}
	return nu, np, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, account.ErrNotFound):
		return ErrUnknownUser
	case errors.Is(err, problem.ErrNotFound):
		return ErrUnknownProblem
	}
	return err
}
