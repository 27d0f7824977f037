package infra

import (
	"context"

	"contest-gateway/middleware/ratelimit/domain"
)

// ChanPool é um semáforo de capacidade fixa.
type ChanPool struct {
	sem chan struct{}
}

func NewChanPool(size int) *ChanPool {
	return &ChanPool{sem: make(chan struct{}, size)}
}

var _ domain.SlotPool = (*ChanPool)(nil)

func (p *ChanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InUse devolve quantas vagas estão ocupadas agora.
func (p *ChanPool) InUse() int { return len(p.sem) }

func (p *ChanPool) Cap() int { return cap(p.sem) }
