package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Broadcaster fans out counter changes to live subscribers.
//
// Subscribers receive the latest count only: a slow reader skips
// intermediate values. The returned channel is closed once the subscription
// ends, either through the cancel func or through ctx.
type Broadcaster interface {
	Publish(ctx context.Context, problemID int64, count int) error
	Subscribe(ctx context.Context, problemID int64) (<-chan int, func(), error)
}

// ChannelName is the Redis pub/sub channel for problem id.
func ChannelName(problemID int64) string {
	return fmt.Sprintf("akshar:problem:%d:recommendations", problemID)
}

// offer delivers n to ch, replacing any value the reader has not taken yet.
func offer(ch chan int, n int) {
	for {
		select {
		case ch <- n:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// LocalBroadcaster delivers counts within one process.
type LocalBroadcaster struct {
	mu   sync.Mutex
	subs map[int64]map[chan int]struct{}
}

func NewLocalBroadcaster() *LocalBroadcaster {
	return &LocalBroadcaster{subs: make(map[int64]map[chan int]struct{})}
}

func (b *LocalBroadcaster) Publish(_ context.Context, problemID int64, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[problemID] {
		offer(ch, count)
	}
	return nil
}

func (b *LocalBroadcaster) Subscribe(ctx context.Context, problemID int64) (<-chan int, func(), error) {
	ch := make(chan int, 1)

	b.mu.Lock()
	if b.subs[problemID] == nil {
		b.subs[problemID] = make(map[chan int]struct{})
	}
	b.subs[problemID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[problemID], ch)
			if len(b.subs[problemID]) == 0 {
				delete(b.subs, problemID)
			}
			close(ch)
			b.mu.Unlock()
		})
	}
	stop := context.AfterFunc(ctx, cancel)
	return ch, func() { stop(); cancel() }, nil
}

// subscribers reports how many live subscriptions exist for problemID.
func (b *LocalBroadcaster) subscribers(problemID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[problemID])
}

// RedisBroadcaster delivers counts across instances through Redis pub/sub.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, problemID int64, count int) error {
	if err := b.client.Publish(ctx, ChannelName(problemID), strconv.Itoa(count)).Err(); err != nil {
		return fmt.Errorf("publish problem %d: %w", problemID, err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, problemID int64) (<-chan int, func(), error) {
	pubsub := b.client.Subscribe(ctx, ChannelName(problemID))
	// Wait for the confirmation so a failed subscribe surfaces here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe problem %d: %w", problemID, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan int, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				n, err := strconv.Atoi(msg.Payload)
				if err != nil {
					slog.Warn("ignoring malformed counter message", "channel", msg.Channel, "payload", msg.Payload)
					continue
				}
				offer(out, n)
			}
		}
	}()

	return out, func() { cancel(); <-done }, nil
}
