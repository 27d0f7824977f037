package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contest-gateway/engine/domain"

	"github.com/redis/go-redis/v9"
)

// appendWinScript confere os tetos e grava o registro nas duas listas de uma
// vez. Retorna 1 quando gravou, 0 quando o prêmio lotou e -1 quando o
// usuário lotou.
var appendWinScript = redis.NewScript(`
if redis.call('LLEN', KEYS[1]) >= tonumber(ARGV[2]) then
  return 0
end
if #KEYS > 1 and tonumber(ARGV[3]) > 0 and redis.call('LLEN', KEYS[2]) >= tonumber(ARGV[3]) then
  return -1
end
local ttl = tonumber(ARGV[4])
for i = 1, #KEYS do
  redis.call('RPUSH', KEYS[i], ARGV[1])
  if ttl > 0 then
    redis.call('EXPIRE', KEYS[i], ttl)
  end
end
return 1
`)

// RedisLedger guarda as vitórias em listas Redis (uma por prêmio+dia e uma
// por usuário+dia). O tamanho da lista é a contagem.
//
// Como as duas chaves ficam em slots diferentes, não funciona em Redis Cluster.
type RedisLedger struct {
	rdb *redis.Client

	prefix string
	// ttl 0 mantém o histórico para sempre.
	ttl time.Duration
}

type RedisLedgerOption func(*RedisLedger)

func WithLedgerPrefix(prefix string) RedisLedgerOption {
	return func(l *RedisLedger) {
		l.prefix = strings.Trim(prefix, ":")
	}
}

func WithLedgerTTL(d time.Duration) RedisLedgerOption {
	return func(l *RedisLedger) { l.ttl = d }
}

func NewRedisLedger(rdb *redis.Client, opts ...RedisLedgerOption) *RedisLedger {
	l := &RedisLedger{
		rdb:    rdb,
		prefix: "contest:wins",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Within implementa domain.Ledger. A única escrita é o script de AppendWin,
// que é atômico no servidor.
func (l *RedisLedger) Within(_ context.Context, fn func(tx domain.LedgerTx) error) error {
	return fn(l)
}

func (l *RedisLedger) CountToday(ctx context.Context, prizeCode string, day domain.Day) (int, error) {
	n, err := l.rdb.LLen(ctx, l.key(domain.PrizeDayKey(prizeCode, day))).Result()
	return int(n), err
}

func (l *RedisLedger) CountUserToday(ctx context.Context, userID string, day domain.Day) (int, error) {
	if userID == "" {
		return 0, nil
	}
	n, err := l.rdb.LLen(ctx, l.key(domain.UserDayKey(userID, day))).Result()
	return int(n), err
}

func (l *RedisLedger) AppendWin(ctx context.Context, rec domain.WinRecord, guard domain.Guard) (domain.WinRecord, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return domain.WinRecord{}, err
	}

	keys := []string{l.key(domain.PrizeDayKey(rec.PrizeCode, rec.Day))}
	if rec.UserID != "" {
		keys = append(keys, l.key(domain.UserDayKey(rec.UserID, rec.Day)))
	}

	res, err := appendWinScript.Run(ctx, l.rdb, keys,
		string(payload), guard.PrizeCap, guard.UserCap, int64(l.ttl/time.Second),
	).Int()
	if err != nil {
		return domain.WinRecord{}, fmt.Errorf("append win: %w", err)
	}
	if res != 1 {
		return domain.WinRecord{}, domain.ErrCapReached
	}
	return rec, nil
}

func (l *RedisLedger) ListWins(ctx context.Context, prizeCode string, day domain.Day) ([]domain.WinRecord, error) {
	raw, err := l.rdb.LRange(ctx, l.key(domain.PrizeDayKey(prizeCode, day)), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.WinRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.WinRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode win record: %w", err)
		}
		out = append(out, rec)
	}
	sortWins(out)
	return out, nil
}

func (l *RedisLedger) key(k domain.Key) string {
	return l.prefix + ":" + string(k)
}
