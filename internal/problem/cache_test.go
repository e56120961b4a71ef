package problem_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/akshar/internal/platform/cache/cachetest"
	"github.com/p-n-ai/akshar/internal/problem"
)

func TestCachedStore(t *testing.T) {
	c := cachetest.New(t)
	ctx := t.Context()

	backing := seedStore(t)
	store := problem.NewCachedStore(backing, c.Client, time.Minute)

	first, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.Prompt != "x + 1 = 2" || first.Kind() != problem.KindFreeResponse {
		t.Fatalf("Get() = %+v", first)
	}

	// The counter moves underneath the cache, as a toggle committing after
	// the fill would. The cached copy must not pin the old value.
	if err := backing.SetRecommendations(1, 7); err != nil {
		t.Fatal(err)
	}
	hit, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if hit.Recommendations != 7 {
		t.Errorf("recommendations from cache hit = %d, want 7", hit.Recommendations)
	}
	if hit.Prompt != first.Prompt {
		t.Errorf("cache hit prompt = %q, want %q", hit.Prompt, first.Prompt)
	}

	raw, err := c.Client.Get(ctx, "akshar:problem:1").Bytes()
	if err != nil {
		t.Fatalf("cached entry missing: %v", err)
	}
	var cached problem.Problem
	if err := json.Unmarshal(raw, &cached); err != nil {
		t.Fatalf("decode cached entry: %v", err)
	}
	if cached.Recommendations != 0 {
		t.Errorf("cached entry carries counter %d, want 0", cached.Recommendations)
	}

	if err := store.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if n, err := c.Client.Exists(ctx, "akshar:problem:1").Result(); err != nil || n != 0 {
		t.Errorf("entry survived Invalidate: n=%d err=%v", n, err)
	}

	if _, err := store.Get(ctx, 404); !errors.Is(err, problem.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if n, err := c.Client.Exists(ctx, "akshar:problem:404").Result(); err != nil || n != 0 {
		t.Errorf("missing problem was cached: n=%d err=%v", n, err)
	}
}
