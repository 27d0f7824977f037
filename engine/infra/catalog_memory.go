package infra

import (
	"context"
	"slices"
	"sync"

	"contest-gateway/engine/domain"
)

// MemoryCatalog mantém concursos e prêmios em memória.
type MemoryCatalog struct {
	mu       sync.RWMutex
	contests map[string]domain.Contest
	prizes   map[string][]domain.Prize
	owner    map[string]string // prêmio -> concurso
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		contests: make(map[string]domain.Contest),
		prizes:   make(map[string][]domain.Prize),
		owner:    make(map[string]string),
	}
}

func (c *MemoryCatalog) GetContest(_ context.Context, code string) (domain.Contest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	contest, ok := c.contests[code]
	if !ok {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	return contest, nil
}

func (c *MemoryCatalog) PrizesOf(_ context.Context, contestCode string) ([]domain.Prize, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.prizes[contestCode]), nil
}

func (c *MemoryCatalog) CountActive(_ context.Context, day domain.Day) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, contest := range c.contests {
		if contest.StateOn(day) == domain.ContestActive {
			n++
		}
	}
	return n, nil
}

// PutContest substitui o concurso e a lista de prêmios dele.
func (c *MemoryCatalog) PutContest(_ context.Context, contest domain.Contest, prizes []domain.Prize) error {
	normalized, err := normalizeContest(contest, prizes)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range normalized {
		if owner, ok := c.owner[p.Code]; ok && owner != contest.Code {
			return prizeOwnedError(p.Code, owner)
		}
	}
	for _, old := range c.prizes[contest.Code] {
		delete(c.owner, old.Code)
	}
	for _, p := range normalized {
		c.owner[p.Code] = contest.Code
	}
	c.contests[contest.Code] = contest
	c.prizes[contest.Code] = normalized
	return nil
}
