package application

import (
	"testing"
	"time"

	"contest-gateway/middleware/ratelimit/domain"
)

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow() bool { return f.allow }

type slowLimiter struct {
	delay time.Duration
}

func (slowLimiter) Allow() bool            { return false }
func (l slowLimiter) Delay() time.Duration { return l.delay }

type fakeStore struct {
	lim domain.Limiter
}

func (s fakeStore) Get(domain.Key) domain.Limiter { return s.lim }

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	dec := Service{}.Decide("user-1")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsWhenStoreHasNoLimiter(t *testing.T) {
	dec := Service{Store: fakeStore{}}.Decide("user-1")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
}

func TestService_Decide_BlocksWithDefaultRetryAfter(t *testing.T) {
	dec := Service{Store: fakeStore{lim: fakeLimiter{allow: false}}}.Decide("user-1")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_UsesLimiterDelayAboveFloor(t *testing.T) {
	svc := Service{Store: fakeStore{lim: slowLimiter{delay: 4 * time.Second}}, RetryAfter: time.Second}
	dec := svc.Decide("user-1")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 4*time.Second {
		t.Fatalf("expected RetryAfter=4s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_KeepsFloorWhenDelayIsShort(t *testing.T) {
	svc := Service{Store: fakeStore{lim: slowLimiter{delay: 100 * time.Millisecond}}, RetryAfter: 2 * time.Second}
	dec := svc.Decide("user-1")
	if dec.RetryAfter != 2*time.Second {
		t.Fatalf("expected RetryAfter=2s, got %s", dec.RetryAfter)
	}
}
