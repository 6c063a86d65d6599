package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestStore_AllowBurstThenRefill(t *testing.T) {
	t.Parallel()

	clk := &fakeNow{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(1, 2, withNow(clk.Now))

	if !s.Allow("user-1") || !s.Allow("user-1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if s.Allow("user-1") {
		t.Fatalf("expected third request to be limited")
	}
	if !s.Allow("user-2") {
		t.Fatalf("expected other keys to have their own bucket")
	}

	clk.Advance(time.Second)
	if !s.Allow("user-1") {
		t.Fatalf("expected a token after refill")
	}
}

func TestStore_CleanupDropsIdleKeys(t *testing.T) {
	t.Parallel()

	clk := &fakeNow{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(1, 1, WithIdleTTL(time.Minute), withNow(clk.Now))

	s.Allow("idle")
	clk.Advance(30 * time.Second)
	s.Allow("busy")
	clk.Advance(45 * time.Second)

	s.Cleanup()
	if s.Len() != 1 {
		t.Fatalf("expected 1 key after cleanup, got %d", s.Len())
	}
	if !s.Allow("idle") {
		t.Fatalf("expected a fresh bucket for a forgotten key")
	}
}
