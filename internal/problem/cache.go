package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// CachedStore is a read-through Redis cache in front of a Store. Only Get is
// cached, and only the immutable part of a problem: the recommendation
// counter is always read from the wrapped store, so a toggle racing a cache
// fill can never leave a stale count behind.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps next with a Redis cache. A zero ttl uses the default.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{Store: next, client: client, ttl: ttl}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("akshar:problem:%d", id)
}

func (s *CachedStore) Get(ctx context.Context, id int64) (Problem, error) {
	data, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var p Problem
		if jerr := json.Unmarshal(data, &p); jerr == nil {
			n, err := s.Store.Recommendations(ctx, id)
			if err != nil {
				return Problem{}, err
			}
			p.Recommendations = n
			return p, nil
		}
		slog.Warn("discarding undecodable cached problem", "problem_id", id)
	case !errors.Is(err, redis.Nil):
		slog.Warn("problem cache read failed", "problem_id", id, "error", err)
	}

	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return Problem{}, err
	}

	cached := p
	cached.Recommendations = 0
	if data, err := json.Marshal(cached); err == nil {
		if err := s.client.Set(ctx, cacheKey(id), data, s.ttl).Err(); err != nil {
			slog.Warn("problem cache write failed", "problem_id", id, "error", err)
		}
	}
	return p, nil
}

// Invalidate drops the cached copy of problem id.
func (s *CachedStore) Invalidate(ctx context.Context, id int64) error {
	if err := s.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate problem %d: %w", id, err)
	}
	return nil
}
