package application

import (
	"time"

	"contest-gateway/middleware/ratelimit/domain"
)

// Service aplica o limite por chave. Não sabe nada de HTTP.
type Service struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.retryAfter(lim)}
}

// retryAfter usa o atraso informado pelo limiter e nunca fica abaixo do
// mínimo configurado (1s quando não configurado).
func (s Service) retryAfter(lim domain.Limiter) time.Duration {
	floor := s.RetryAfter
	if floor <= 0 {
		floor = time.Second
	}
	d, ok := lim.(domain.Delayer)
	if !ok {
		return floor
	}
	return max(floor, d.Delay())
}
