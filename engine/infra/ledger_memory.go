package infra

import (
	"context"
	"slices"
	"sync"

	"contest-gateway/engine/domain"

	"github.com/puzpuzpuz/xsync"
)

// MemoryLedger guarda as vitórias em memória, indexadas por prêmio+dia e
// usuário+dia. Útil para testes, simulação e desenvolvimento.
//
// Não persiste nada; um restart zera os contadores.
type MemoryLedger struct {
	prizes *xsync.MapOf[string, *dayLog]
	users  *xsync.MapOf[string, *dayLog]
}

type dayLog struct {
	mu      sync.Mutex
	records []domain.WinRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		prizes: xsync.NewMapOf[*dayLog](),
		users:  xsync.NewMapOf[*dayLog](),
	}
}

// Within implementa domain.Ledger. AppendWin já é atômico por si, então não há
// o que desfazer.
func (l *MemoryLedger) Within(_ context.Context, fn func(tx domain.LedgerTx) error) error {
	return fn(l)
}

func (l *MemoryLedger) CountToday(_ context.Context, prizeCode string, day domain.Day) (int, error) {
	return count(l.prizes, string(domain.PrizeDayKey(prizeCode, day))), nil
}

func (l *MemoryLedger) CountUserToday(_ context.Context, userID string, day domain.Day) (int, error) {
	if userID == "" {
		return 0, nil
	}
	return count(l.users, string(domain.UserDayKey(userID, day))), nil
}

func (l *MemoryLedger) AppendWin(_ context.Context, rec domain.WinRecord, guard domain.Guard) (domain.WinRecord, error) {
	prize := logFor(l.prizes, string(domain.PrizeDayKey(rec.PrizeCode, rec.Day)))
	var user *dayLog
	if rec.UserID != "" {
		user = logFor(l.users, string(domain.UserDayKey(rec.UserID, rec.Day)))
	}

	// mesma ordem do KeyLocker: prêmio antes de usuário
	prize.mu.Lock()
	defer prize.mu.Unlock()
	if user != nil {
		user.mu.Lock()
		defer user.mu.Unlock()
	}

	if len(prize.records) >= guard.PrizeCap {
		return domain.WinRecord{}, domain.ErrCapReached
	}
	if user != nil && guard.UserCap > 0 && len(user.records) >= guard.UserCap {
		return domain.WinRecord{}, domain.ErrCapReached
	}

	prize.records = append(prize.records, rec)
	if user != nil {
		user.records = append(user.records, rec)
	}
	return rec, nil
}

func (l *MemoryLedger) ListWins(_ context.Context, prizeCode string, day domain.Day) ([]domain.WinRecord, error) {
	lg, ok := l.prizes.Load(string(domain.PrizeDayKey(prizeCode, day)))
	if !ok {
		return nil, nil
	}
	lg.mu.Lock()
	out := slices.Clone(lg.records)
	lg.mu.Unlock()

	sortWins(out)
	return out, nil
}

// sortWins ordena por Timestamp. A ordem de gravação segue a ordem em que o
// escopo foi obtido, que pode não ser a ordem de chegada.
func sortWins(recs []domain.WinRecord) {
	slices.SortStableFunc(recs, func(a, b domain.WinRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

func count(m *xsync.MapOf[string, *dayLog], key string) int {
	lg, ok := m.Load(key)
	if !ok {
		return 0
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return len(lg.records)
}

func logFor(m *xsync.MapOf[string, *dayLog], key string) *dayLog {
	if lg, ok := m.Load(key); ok {
		return lg
	}
	lg, _ := m.LoadOrStore(key, &dayLog{})
	return lg
}
