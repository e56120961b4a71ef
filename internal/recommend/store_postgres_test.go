package recommend_test

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/akshar/internal/account"
	"github.com/p-n-ai/akshar/internal/platform/database/dbtest"
	"github.com/p-n-ai/akshar/internal/problem"
	"github.com/p-n-ai/akshar/internal/recommend"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := recommend.NewPostgresStore(nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresStore_Ledger(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	users, _ := account.NewPostgresStore(db.Pool)
	problems, _ := problem.NewPostgresStore(db.Pool)
	ledger, err := recommend.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	var userIDs []int64
	for _, name := range []string{"ada", "bob", "cy", "dee"} {
		u, err := users.Create(ctx, name, "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		userIDs = append(userIDs, u.ID)
	}
	p, err := problems.Create(ctx, problem.NewProblem{
		OwnerID: userIDs[0],
		Topic:   problem.TopicTrivia,
		Prompt:  "Largest ocean?",
		Content: problem.MultipleChoice{Options: []string{"Pacific", "Atlantic"}, Solution: 0},
	})
	if err != nil {
		t.Fatalf("create problem: %v", err)
	}

	n, err := toggle(t, ledger, userIDs[0], p.ID, recommend.Recommend)
	if err != nil || n != 1 {
		t.Fatalf("Recommend = %d, %v; want 1, nil", n, err)
	}
	if _, err := toggle(t, ledger, userIDs[0], p.ID, recommend.Recommend); !errors.Is(err, recommend.ErrAlreadyRecommended) {
		t.Errorf("second Recommend error = %v, want ErrAlreadyRecommended", err)
	}
	if _, err := toggle(t, ledger, userIDs[1], p.ID, recommend.Undo); !errors.Is(err, recommend.ErrNotRecommended) {
		t.Errorf("Undo without recommend error = %v, want ErrNotRecommended", err)
	}
	if _, err := toggle(t, ledger, 9999, p.ID, recommend.Recommend); !errors.Is(err, recommend.ErrUnknownUser) {
		t.Errorf("unknown user error = %v, want ErrUnknownUser", err)
	}
	if _, err := toggle(t, ledger, userIDs[0], 9999, recommend.Recommend); !errors.Is(err, recommend.ErrUnknownProblem) {
		t.Errorf("unknown problem error = %v, want ErrUnknownProblem", err)
	}

	// The remaining users recommend concurrently; row locks serialize them.
	var g errgroup.Group
	for _, uid := range userIDs[1:] {
		g.Go(func() error {
			_, err := toggle(t, ledger, uid, p.ID, recommend.Recommend)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Recommend error = %v", err)
	}

	got, err := problems.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Recommendations != len(userIDs) {
		t.Errorf("count = %d, want %d", got.Recommendations, len(userIDs))
	}

	drift, err := ledger.Drift(ctx)
	if err != nil {
		t.Fatalf("Drift() error = %v", err)
	}
	if len(drift) != 0 {
		t.Errorf("Drift() = %+v, want none", drift)
	}

	if _, err := db.Pool.Exec(ctx, `UPDATE problems SET recommendations = 1 WHERE id = $1`, p.ID); err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}
	drift, _ = ledger.Drift(ctx)
	if len(drift) != 1 || drift[0].Actual != len(userIDs) || drift[0].Counter != 1 {
		t.Errorf("Drift() = %+v, want one drifting problem", drift)
	}
}
