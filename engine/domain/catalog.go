package domain

import (
	"context"
	"time"
)

// Catalog resolve concursos e prêmios. O CRUD em si fica fora do motor.
//
// GetContest devolve ErrContestNotFound quando o código não existe.
type Catalog interface {
	GetContest(ctx context.Context, code string) (Contest, error)
	PrizesOf(ctx context.Context, contestCode string) ([]Prize, error)
	CountActive(ctx context.Context, day Day) (int, error)
}

// CatalogWriter é usado pelo seed e pelos testes.
type CatalogWriter interface {
	PutContest(ctx context.Context, c Contest, prizes []Prize) error
}

// OutcomeEvent é uma avaliação concluída (vitória ou não).
type OutcomeEvent struct {
	ContestCode string
	PrizeCode   string
	Win         bool
	At          time.Time
}

// OutcomeRecorder guarda estatística de avaliações.
// Quem chama trata erro como best-effort (não derruba a requisição).
type OutcomeRecorder interface {
	Record(ctx context.Context, ev OutcomeEvent) error
}

// HourlyCounts são contadores por hora do dia (0..23) no fuso de referência.
type HourlyCounts [24]int64

// OutcomeReader expõe os contadores por hora para relatórios.
type OutcomeReader interface {
	RequestsByHour(ctx context.Context, prizeCode string, day Day) (HourlyCounts, error)
}
