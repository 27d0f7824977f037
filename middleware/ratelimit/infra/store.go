package infra

import (
	"context"
	"sync/atomic"
	"time"

	"contest-gateway/middleware/ratelimit/domain"

	"github.com/puzpuzpuz/xsync"
	"golang.org/x/time/rate"
)

// Store guarda um token bucket por chave. Chaves paradas há mais de idleTTL
// são descartadas pelo janitor.
type Store struct {
	entries      *xsync.MapOf[string, *storeEntry]
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type storeEntry struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

type StoreOption func(*Store)

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func NewStore(rps float64, burst int, opts ...StoreOption) *Store {
	s := &Store{
		entries:      xsync.NewMapOf[*storeEntry](),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) RPS() float64 { return float64(s.rps) }
func (s *Store) Burst() int   { return s.burst }
func (s *Store) Len() int     { return s.entries.Size() }

// Get implementa domain.LimiterStore.
func (s *Store) Get(key domain.Key) domain.Limiter {
	return tokenBucket{lim: s.limiter(string(key))}
}

func (s *Store) limiter(key string) *rate.Limiter {
	now := s.now()
	ent, _ := s.entries.LoadOrCompute(key, func() *storeEntry {
		return &storeEntry{lim: rate.NewLimiter(s.rps, s.burst)}
	})
	ent.lastSeen.Store(now.UnixNano())
	return ent.lim
}

// Cleanup remove as chaves sem uso há mais de idleTTL.
func (s *Store) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL).UnixNano()
	s.entries.Range(func(key string, ent *storeEntry) bool {
		if ent.lastSeen.Load() < cutoff {
			s.entries.Delete(key)
		}
		return true
	})
}

// StartJanitor roda Cleanup periodicamente até o ctx encerrar.
func (s *Store) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// tokenBucket expõe o rate.Limiter como domain.Limiter e domain.Delayer.
type tokenBucket struct {
	lim *rate.Limiter
}

func (b tokenBucket) Allow() bool { return b.lim.Allow() }

// Delay consulta quanto falta para o próximo token sem consumi-lo.
func (b tokenBucket) Delay() time.Duration {
	r := b.lim.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 0
	}
	return r.Delay()
}
