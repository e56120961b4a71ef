package account

import (
	"context"
	"sync"
)

// Store persists users.
type Store interface {
	Create(ctx context.Context, name, passwordHash string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByName(ctx context.Context, name string) (User, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	users  map[int64]User
	byName map[string]int64
	nextID int64
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]User),
		byName: make(map[string]int64),
		nextID: 1,
	}
}

func (s *MemoryStore) Create(_ context.Context, name, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[name]; taken {
		return User{}, ErrNameTaken
	}
	u := User{
		ID:           s.nextID,
		Name:         name,
		PasswordHash: passwordHash,
		Recommended:  IDSet{},
	}
	s.nextID++
	s.users[u.ID] = u
	s.byName[name] = u.ID
	return u.Clone(), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryStore) GetByName(_ context.Context, name string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[id].Clone(), nil
}

// SetRecommended replaces the recommended set of user id. The ledger is the
// only caller and holds its own lock around the read-modify-write.
func (s *MemoryStore) SetRecommended(id int64, set IDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Recommended = set.Clone()
	s.users[id] = u
	return nil
}

// All returns a snapshot of every stored user.
func (s *MemoryStore) All() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	return out
}
