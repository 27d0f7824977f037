package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contest-gateway/engine/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLockerExclusive(t *testing.T) {
	l := NewKeyLocker()
	release, ok := l.Acquire(context.Background(), "prize:P:2025-06-01")
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok = l.Acquire(ctx, "prize:P:2025-06-01")
	assert.False(t, ok, "second holder must wait")

	release()
	release() // segunda chamada não faz nada

	again, ok := l.Acquire(context.Background(), "prize:P:2025-06-01")
	require.True(t, ok)
	again()
	assert.Zero(t, l.Len())
}

func TestKeyLockerDistinctKeysDoNotBlock(t *testing.T) {
	l := NewKeyLocker()
	releaseA, ok := l.Acquire(context.Background(), "prize:A:2025-06-01")
	require.True(t, ok)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, ok := l.Acquire(ctx, "prize:B:2025-06-01")
	require.True(t, ok)
	releaseB()
}

func TestKeyLockerFailedAcquireHoldsNothing(t *testing.T) {
	l := NewKeyLocker()
	user := domain.UserDayKey("alice", "2025-06-01")
	holdUser, ok := l.Acquire(context.Background(), user)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	prize := domain.PrizeDayKey("P", "2025-06-01")
	_, ok = l.Acquire(ctx, user, prize)
	require.False(t, ok)

	// o prêmio foi obtido antes do usuário e precisa ter sido devolvido
	quick, cancelQuick := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelQuick()
	releasePrize, ok := l.Acquire(quick, prize)
	require.True(t, ok)
	releasePrize()

	holdUser()
	assert.Zero(t, l.Len())
}

func TestKeyLockerCanceledContext(t *testing.T) {
	l := NewKeyLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := l.Acquire(ctx, "prize:P:2025-06-01")
	assert.False(t, ok)
	assert.Zero(t, l.Len())
}

func TestKeyLockerOppositeOrderNoDeadlock(t *testing.T) {
	l := NewKeyLocker()
	a := domain.PrizeDayKey("P", "2025-06-01")
	b := domain.UserDayKey("bob", "2025-06-01")

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys := []domain.Key{a, b}
			if i%2 == 1 {
				keys = []domain.Key{b, a, b}
			}
			release, ok := l.Acquire(context.Background(), keys...)
			if !ok {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock")
	}

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Zero(t, l.Len())
}
