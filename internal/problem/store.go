package problem

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

const (
	DefaultMaxResults = 50
	MaxResultsLimit   = 200
)

// ErrNotFound is returned when a problem id does not exist.
var ErrNotFound error = &apperr.Rejection{Message: "Could not find requested problem"}

// Query filters problems. Zero values mean "any". A problem matches Tags
// when it carries every requested tag.
type Query struct {
	ID         int64
	OwnerID    int64
	Topic      Topic
	Tags       []string
	Kind       Kind
	MaxResults int
}

// Limit returns the effective result cap.
func (q Query) Limit() int {
	switch {
	case q.MaxResults <= 0:
		return DefaultMaxResults
	case q.MaxResults > MaxResultsLimit:
		return MaxResultsLimit
	}
	return q.MaxResults
}

// Matches reports whether p passes every filter in q.
func (q Query) Matches(p Problem) bool {
	if q.ID != 0 && p.ID != q.ID {
		return false
	}
	if q.OwnerID != 0 && p.OwnerID != q.OwnerID {
		return false
	}
	if q.Topic != "" && p.Topic != q.Topic {
		return false
	}
	if q.Kind != "" && p.Kind() != q.Kind {
		return false
	}
	for _, tag := range q.Tags {
		if !slices.Contains(p.Tags, tag) {
			return false
		}
	}
	return true
}

// Store persists problems.
type Store interface {
	Create(ctx context.Context, np NewProblem) (Problem, error)
	Get(ctx context.Context, id int64) (Problem, error)
	// Recommendations returns only the live counter of problem id.
	Recommendations(ctx context.Context, id int64) (int, error)
	Query(ctx context.Context, q Query) ([]int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Problem, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	problems map[int64]Problem
	nextID   int64
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory problem store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		problems: make(map[int64]Problem),
		nextID:   1,
	}
}

func (s *MemoryStore) Create(_ context.Context, np NewProblem) (Problem, error) {
	if np.Content == nil {
		return Problem{}, errors.New("content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Problem{
		ID:      s.nextID,
		OwnerID: np.OwnerID,
		Topic:   np.Topic,
		Tags:    slices.Clone(np.Tags),
		Prompt:  np.Prompt,
		Content: np.Content,
	}
	s.nextID++
	s.problems[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.problems[id]
	if !ok {
		return Problem{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Recommendations(_ context.Context, id int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.problems[id]
	if !ok {
		return 0, ErrNotFound
	}
	return p.Recommendations, nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0)
	for id, p := range s.problems {
		if q.Matches(p) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > q.Limit() {
		ids = ids[:q.Limit()]
	}
	return ids, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID int64) ([]Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Problem, 0)
	for _, p := range s.problems {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Problem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// SetRecommendations overwrites the counter of problem id. The ledger is the
// only caller and holds its own lock around the read-modify-write.
func (s *MemoryStore) SetRecommendations(id int64, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.problems[id]
	if !ok {
		return ErrNotFound
	}
	p.Recommendations = n
	s.problems[id] = p
	return nil
}

// All returns a snapshot of every stored problem.
func (s *MemoryStore) All() []Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Problem, 0, len(s.problems))
	for _, p := range s.problems {
		out = append(out, p)
	}
	return out
}
