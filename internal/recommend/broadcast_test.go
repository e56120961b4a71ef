package recommend

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case n, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for count")
	}
	return 0
}

func TestLocalBroadcaster_FanOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewLocalBroadcaster()
	ctx := t.Context()

	a, cancelA, _ := b.Subscribe(ctx, 1)
	c, cancelC, _ := b.Subscribe(ctx, 1)
	other, cancelOther, _ := b.Subscribe(ctx, 2)
	defer cancelOther()

	if err := b.Publish(ctx, 1, 5); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got := receive(t, a); got != 5 {
		t.Errorf("a got %d, want 5", got)
	}
	if got := receive(t, c); got != 5 {
		t.Errorf("c got %d, want 5", got)
	}
	select {
	case n := <-other:
		t.Errorf("problem 2 subscriber got %d", n)
	default:
	}

	cancelA()
	cancelC()
	cancelC()
	if _, ok := <-a; ok {
		t.Error("channel should be closed after cancel")
	}
	if n := b.subscribers(1); n != 0 {
		t.Errorf("subscribers(1) = %d, want 0", n)
	}
}

func TestLocalBroadcaster_LatestWins(t *testing.T) {
	b := NewLocalBroadcaster()
	ch, cancel, _ := b.Subscribe(t.Context(), 1)
	defer cancel()

	for n := range 10 {
		_ = b.Publish(t.Context(), 1, n)
	}
	if got := receive(t, ch); got != 9 {
		t.Errorf("got %d, want latest 9", got)
	}
}

func TestLocalBroadcaster_ContextEndsSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewLocalBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, _ := b.Subscribe(ctx, 3)

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not released after context cancel")
	}
	if n := b.subscribers(3); n != 0 {
		t.Errorf("subscribers(3) = %d, want 0", n)
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName(42); got != "akshar:problem:42:recommendations" {
		t.Errorf("ChannelName(42) = %q", got)
	}
}
