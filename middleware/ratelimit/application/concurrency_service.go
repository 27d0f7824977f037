package application

import (
	"context"
	"time"

	"contest-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService adquire vagas do pool com timeout opcional.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire devolve (release, ok). AcquireTimeout <= 0 espera até o ctx
// encerrar. Sem pool, sempre passa.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx)
}
