package infra

import (
	"context"
	"sync"
	"time"

	"contest-gateway/engine/domain"
)

type OutcomeTotals struct {
	Requests int64
	Wins     int64
}

// MemoryOutcomeStore é a versão em memória do RedisOutcomeStore.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryOutcomeStore struct {
	mu    sync.Mutex
	loc   *time.Location
	total OutcomeTotals
	byDay map[string]*dayOutcomes
}

type dayOutcomes struct {
	requests domain.HourlyCounts
	wins     domain.HourlyCounts
}

func NewMemoryOutcomeStore(loc *time.Location) *MemoryOutcomeStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryOutcomeStore{
		loc:   loc,
		byDay: make(map[string]*dayOutcomes),
	}
}

func (s *MemoryOutcomeStore) Record(_ context.Context, ev domain.OutcomeEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.In(s.loc)
	key := string(domain.PrizeDayKey(ev.PrizeCode, domain.DayOf(at, s.loc)))

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byDay[key]
	if !ok {
		d = &dayOutcomes{}
		s.byDay[key] = d
	}
	s.total.Requests++
	d.requests[at.Hour()]++
	if ev.Win {
		s.total.Wins++
		d.wins[at.Hour()]++
	}
	return nil
}

func (s *MemoryOutcomeStore) RequestsByHour(_ context.Context, prizeCode string, day domain.Day) (domain.HourlyCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byDay[string(domain.PrizeDayKey(prizeCode, day))]
	if !ok {
		return domain.HourlyCounts{}, nil
	}
	return d.requests, nil
}

func (s *MemoryOutcomeStore) Total() OutcomeTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}
