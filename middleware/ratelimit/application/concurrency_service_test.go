package application

import (
	"context"
	"testing"
	"time"
)

// waitPool só devolve quando o ctx encerra.
type waitPool struct{}

func (waitPool) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}

type countingPool struct {
	acquired int
	deadline bool
}

func (p *countingPool) Acquire(ctx context.Context) (func(), bool) {
	p.acquired++
	_, p.deadline = ctx.Deadline()
	return func() {}, true
}

func TestConcurrencyService_Acquire_AllowsWhenNoPool(t *testing.T) {
	release, ok := ConcurrencyService{}.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected ok")
	}
	release()
}

func TestConcurrencyService_Acquire_GivesUpAfterTimeout(t *testing.T) {
	svc := ConcurrencyService{Pool: waitPool{}, AcquireTimeout: 10 * time.Millisecond}

	start := time.Now()
	if _, ok := svc.Acquire(context.Background()); ok {
		t.Fatalf("expected timeout and ok=false")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("acquire took too long: %s", time.Since(start))
	}
}

func TestConcurrencyService_Acquire_RespectsCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := (ConcurrencyService{Pool: waitPool{}}).Acquire(ctx); ok {
		t.Fatalf("expected ok=false for canceled context")
	}
}

func TestConcurrencyService_Acquire_NoTimeoutPassesContextThrough(t *testing.T) {
	pool := &countingPool{}
	svc := ConcurrencyService{Pool: pool}

	if _, ok := svc.Acquire(context.Background()); !ok {
		t.Fatalf("expected ok")
	}
	if pool.acquired != 1 {
		t.Fatalf("expected pool Acquire to be called once, got %d", pool.acquired)
	}
	if pool.deadline {
		t.Fatalf("expected no deadline when AcquireTimeout is zero")
	}
}
