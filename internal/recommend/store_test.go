package recommend_test

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

type fixture struct {
	users    *account.MemoryStore
	problems *problem.MemoryStore
	ledger   *recommend.MemoryStore
	userIDs  []int64
	probIDs  []int64
}

func newFixture(t *testing.T, nUsers, nProblems int) *fixture {
	t.Helper()
	ctx := t.Context()
	f := &fixture{
		users:    account.NewMemoryStore(),
		problems: problem.NewMemoryStore(),
	}
	f.ledger = recommend.NewMemoryStore(f.users, f.problems)

	for i := range nUsers {
		u, err := f.users.Create(ctx, string(rune('a'+i)), "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		f.userIDs = append(f.userIDs, u.ID)
	}
	for range nProblems {
		p, err := f.problems.Create(ctx, problem.NewProblem{
			OwnerID: f.userIDs[0],
			Topic:   problem.TopicLogic,
			Prompt:  "Pick one",
			Content: problem.MultipleChoice{Options: []string{"yes", "no"}, Solution: 0},
		})
		if err != nil {
			t.Fatalf("create problem: %v", err)
		}
		f.probIDs = append(f.probIDs, p.ID)
	}
	return f
}

func toggle(t *testing.T, s recommend.Store, userID, problemID int64, intent recommend.Intent) (int, error) {
	t.Helper()
	_, p, err := s.Update(t.Context(), userID, problemID, func(u account.User, p problem.Problem) (account.User, problem.Problem, error) {
		return recommend.Apply(u, p, intent)
	})
	return p.Recommendations, err
}

func TestMemoryStore_Update(t *testing.T) {
	f := newFixture(t, 1, 1)
	uid, pid := f.userIDs[0], f.probIDs[0]
	if err := f.problems.SetRecommendations(pid, 4); err != nil {
		t.Fatal(err)
	}

	n, err := toggle(t, f.ledger, uid, pid, recommend.Recommend)
	if err != nil {
		t.Fatalf("Recommend error = %v", err)
	}
	if n != 5 {
		t.Errorf("count = %d, want 5", n)
	}

	if _, err := toggle(t, f.ledger, uid, pid, recommend.Recommend); !errors.Is(err, recommend.ErrAlreadyRecommended) {
		t.Errorf("second Recommend error = %v, want ErrAlreadyRecommended", err)
	}
	p, _ := f.problems.Get(t.Context(), pid)
	if p.Recommendations != 5 {
		t.Errorf("stored count = %d, want 5", p.Recommendations)
	}
	u, _ := f.users.GetByID(t.Context(), uid)
	if !u.Recommended.Has(pid) {
		t.Error("stored set should hold the problem id")
	}
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	f := newFixture(t, 1, 1)

	if _, err := toggle(t, f.ledger, 99, f.probIDs[0], recommend.Recommend); !errors.Is(err, recommend.ErrUnknownUser) {
		t.Errorf("unknown user error = %v, want ErrUnknownUser", err)
	}
	if _, err := toggle(t, f.ledger, f.userIDs[0], 99, recommend.Recommend); !errors.Is(err, recommend.ErrUnknownProblem) {
		t.Errorf("unknown problem error = %v, want ErrUnknownProblem", err)
	}
}

func TestMemoryStore_UpdateAbortPersistsNothing(t *testing.T) {
	f := newFixture(t, 1, 1)
	uid, pid := f.userIDs[0], f.probIDs[0]
	boom := errors.New("boom")

	_, _, err := f.ledger.Update(t.Context(), uid, pid, func(u account.User, p problem.Problem) (account.User, problem.Problem, error) {
		u.Recommended.Add(p.ID)
		p.Recommendations = 40
		return u, p, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	u, _ := f.users.GetByID(t.Context(), uid)
	p, _ := f.problems.Get(t.Context(), pid)
	if u.Recommended.Has(pid) || p.Recommendations != 0 {
		t.Errorf("aborted update persisted: set %v, count %d", u.Recommended.Sorted(), p.Recommendations)
	}
}

// assertInvariant checks that every counter equals the number of users
// holding the problem id.
func assertInvariant(t *testing.T, f *fixture) {
	t.Helper()
	drift, err := f.ledger.Drift(t.Context())
	if err != nil {
		t.Fatalf("Drift() error = %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("invariant broken: %+v", drift)
	}
}

func TestMemoryStore_RandomSequenceKeepsInvariant(t *testing.T) {
	f := newFixture(t, 5, 4)
	rng := rand.New(rand.NewPCG(7, 11))

	for step := range 500 {
		uid := f.userIDs[rng.IntN(len(f.userIDs))]
		pid := f.probIDs[rng.IntN(len(f.probIDs))]
		intent := recommend.Recommend
		if rng.IntN(2) == 0 {
			intent = recommend.Undo
		}

		_, err := toggle(t, f.ledger, uid, pid, intent)
		if err != nil && !errors.Is(err, recommend.ErrAlreadyRecommended) && !errors.Is(err, recommend.ErrNotRecommended) {
			t.Fatalf("step %d: unexpected error %v", step, err)
		}
		assertInvariant(t, f)
	}
}

func TestMemoryStore_ConcurrentToggles(t *testing.T) {
	f := newFixture(t, 8, 1)
	pid := f.probIDs[0]

	var wg sync.WaitGroup
	for _, uid := range f.userIDs {
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = f.ledger.Update(t.Context(), uid, pid, func(u account.User, p problem.Problem) (account.User, problem.Problem, error) {
					return recommend.Apply(u, p, recommend.Recommend)
				})
			}()
		}
	}
	wg.Wait()

	p, _ := f.problems.Get(t.Context(), pid)
	if p.Recommendations != len(f.userIDs) {
		t.Errorf("count = %d, want %d", p.Recommendations, len(f.userIDs))
	}
	assertInvariant(t, f)
}
