package domain

import (
	"context"
	"time"
)

// WinRecord é imutável e só é criado quando o coordinator confirma uma vitória.
// UserID vazio significa jogador anônimo.
type WinRecord struct {
	ID          string    `json:"id"`
	PrizeCode   string    `json:"prize_code"`
	ContestCode string    `json:"contest_code"`
	UserID      string    `json:"user_id,omitempty"`
	Day         Day       `json:"day"`
	Timestamp   time.Time `json:"timestamp"`
}

// Guard são os tetos que AppendWin confere antes de gravar.
// PrizeCap vale sempre; UserCap <= 0 desliga a checagem por usuário.
type Guard struct {
	PrizeCap int
	UserCap  int
}

// LedgerTx são as primitivas de contagem e gravação válidas dentro de uma
// unidade aberta por Ledger.Within.
//
// As leituras refletem tudo que já foi confirmado para a chave; não há cache.
// AppendWin devolve ErrCapReached se o Guard já estiver esgotado (corrida com
// outro processo); nesse caso nada foi gravado.
type LedgerTx interface {
	CountToday(ctx context.Context, prizeCode string, day Day) (int, error)
	CountUserToday(ctx context.Context, userID string, day Day) (int, error)
	AppendWin(ctx context.Context, rec WinRecord, guard Guard) (WinRecord, error)
}

// Ledger é o armazenamento append-only de vitórias.
//
// Within executa fn como uma unidade: ou tudo que fn gravou é confirmado,
// ou nada. O Ledger não pode introduzir travas próprias que conflitem com o
// escopo por chave do coordinator.
type Ledger interface {
	Within(ctx context.Context, fn func(tx LedgerTx) error) error
}

// WinReader é o lado de leitura usado por relatórios.
type WinReader interface {
	ListWins(ctx context.Context, prizeCode string, day Day) ([]WinRecord, error)
}

// Key identifica um contador diário (prêmio+dia ou usuário+dia).
//
// O formato "prize:..." < "user:..." faz com que a ordem lexicográfica das
// chaves seja também a ordem global de aquisição (prêmio antes de usuário).
type Key string

func PrizeDayKey(prizeCode string, day Day) Key {
	return Key("prize:" + prizeCode + ":" + string(day))
}

func UserDayKey(userID string, day Day) Key {
	return Key("user:" + userID + ":" + string(day))
}

// KeyLocker fornece o escopo exclusivo e curto por chave.
//
// Acquire bloqueia até obter todas as chaves (em ordem global fixa) ou até o
// ctx encerrar. Em caso de sucesso, release deve ser chamada exatamente uma vez.
// Se ok=false, nenhuma chave ficou presa.
type KeyLocker interface {
	Acquire(ctx context.Context, keys ...Key) (release func(), ok bool)
}
