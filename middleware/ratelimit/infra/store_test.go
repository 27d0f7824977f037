package infra

import (
	"context"
	"testing"
	"time"

	"contest-gateway/middleware/ratelimit/domain"
)

func TestStore_SameKeySharesBucket(t *testing.T) {
	s := NewStore(0.02, 1)

	if !s.Get(domain.Key("user-1")).Allow() {
		t.Fatalf("expected first Allow to be true")
	}
	if s.Get(domain.Key("user-1")).Allow() {
		t.Fatalf("expected second Allow on same key to be false (burst=1)")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestStore_DifferentKeysAreIndependent(t *testing.T) {
	s := NewStore(0.02, 1)

	if !s.Get(domain.Key("user-1")).Allow() {
		t.Fatalf("expected user-1 to pass")
	}
	if !s.Get(domain.Key("user-2")).Allow() {
		t.Fatalf("expected user-2 to pass")
	}
}

func TestStore_DelayReportsTimeToNextToken(t *testing.T) {
	s := NewStore(1, 1)

	lim := s.Get(domain.Key("k"))
	if !lim.Allow() {
		t.Fatalf("expected first Allow to be true")
	}
	d, ok := lim.(domain.Delayer)
	if !ok {
		t.Fatalf("expected limiter to implement Delayer")
	}
	if got := d.Delay(); got <= 0 || got > time.Second {
		t.Fatalf("expected delay in (0, 1s], got %s", got)
	}
	// consultar o atraso não pode consumir token
	if got := d.Delay(); got > time.Second {
		t.Fatalf("expected delay to stay <= 1s, got %s", got)
	}
}

func TestStore_CleanupRemovesIdleEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewStore(10, 1, WithIdleTTL(time.Minute), WithCleanupEvery(0))
	s.now = func() time.Time { return now }

	s.Get(domain.Key("old"))
	now = now.Add(2 * time.Minute)
	s.Get(domain.Key("fresh"))

	s.Cleanup()

	if s.Len() != 1 {
		t.Fatalf("expected only the fresh entry to survive, got %d entries", s.Len())
	}
}

func TestStore_JanitorStopsWithContext(t *testing.T) {
	s := NewStore(10, 1, WithIdleTTL(time.Nanosecond), WithCleanupEvery(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	s.StartJanitor(ctx)

	s.Get(domain.Key("k"))
	deadline := time.Now().Add(time.Second)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if s.Len() != 0 {
		t.Fatalf("expected janitor to remove idle entry")
	}
}

func TestChanPool_RejectsWhenFull(t *testing.T) {
	p := NewChanPool(1)

	release, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	if p.InUse() != 1 {
		t.Fatalf("expected 1 slot in use, got %d", p.InUse())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected second acquire to fail while full")
	}

	release()
	if p.InUse() != 0 {
		t.Fatalf("expected pool to be empty after release")
	}
}
