package application

import (
	"context"
	"fmt"
	"time"

	"contest-gateway/engine/domain"
)

// Admission é um concurso ACTIVE com o prêmio que será avaliado.
type Admission struct {
	Contest domain.Contest
	Prize   domain.Prize
	Day     domain.Day
}

// Gate barra chamadas antes do motor: concurso existe, está ACTIVE no dia de
// now e tem ao menos um prêmio. O motor assume que só recebe chamadas admitidas.
type Gate struct {
	Catalog domain.Catalog
	Config  domain.ConfigSource
}

func (g Gate) Admit(ctx context.Context, contestCode string, now time.Time) (Admission, error) {
	contest, err := g.Catalog.GetContest(ctx, contestCode)
	if err != nil {
		return Admission{}, err
	}

	day := domain.DayOf(now, g.location())
	if state := contest.StateOn(day); state != domain.ContestActive {
		return Admission{}, fmt.Errorf("%w: %s is %s", domain.ErrContestInactive, contest.Code, state)
	}

	prizes, err := g.Catalog.PrizesOf(ctx, contest.Code)
	if err != nil {
		return Admission{}, err
	}
	if len(prizes) == 0 {
		return Admission{}, fmt.Errorf("%w: %s", domain.ErrNoPrize, contest.Code)
	}

	return Admission{Contest: contest, Prize: prizes[0], Day: day}, nil
}

// State devolve o estado do concurso sem exigir que esteja ativo.
func (g Gate) State(ctx context.Context, contestCode string, now time.Time) (domain.ContestState, error) {
	contest, err := g.Catalog.GetContest(ctx, contestCode)
	if err != nil {
		return "", err
	}
	return contest.StateOn(domain.DayOf(now, g.location())), nil
}

func (g Gate) location() *time.Location {
	if g.Config == nil {
		return time.UTC
	}
	if loc := g.Config.Load().Location; loc != nil {
		return loc
	}
	return time.UTC
}
