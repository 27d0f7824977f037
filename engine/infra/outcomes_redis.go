package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"contest-gateway/engine/domain"

	"github.com/redis/go-redis/v9"
)

// RedisOutcomeStore conta avaliações e vitórias por prêmio, dia e hora.
//
// Layout:
//
//	<prefix>:total               requests / wins (cumulativo, não expira)
//	<prefix>:<prêmio>:<dia>      req:HH / win:HH
type RedisOutcomeStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas nas chaves por dia.
	ttl time.Duration
	loc *time.Location
}

type RedisOutcomeOption func(*RedisOutcomeStore)

func WithOutcomePrefix(prefix string) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithOutcomeTTL(d time.Duration) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) { s.ttl = d }
}

// WithOutcomeLocation define o fuso usado para achar dia e hora do evento.
func WithOutcomeLocation(loc *time.Location) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewRedisOutcomeStore(rdb *redis.Client, opts ...RedisOutcomeOption) *RedisOutcomeStore {
	s := &RedisOutcomeStore{
		rdb:    rdb,
		prefix: "contest:outcomes",
		ttl:    72 * time.Hour,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisOutcomeStore) Record(ctx context.Context, ev domain.OutcomeEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.In(s.loc)
	hour := fmt.Sprintf("%02d", at.Hour())

	totalKey := s.prefix + ":total"
	dayKey := s.dayKey(ev.PrizeCode, domain.DayOf(at, s.loc))

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, "requests", 1)
	pipe.HIncrBy(ctx, dayKey, "req:"+hour, 1)
	if ev.Win {
		pipe.HIncrBy(ctx, totalKey, "wins", 1)
		pipe.HIncrBy(ctx, dayKey, "win:"+hour, 1)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, dayKey, s.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisOutcomeStore) RequestsByHour(ctx context.Context, prizeCode string, day domain.Day) (domain.HourlyCounts, error) {
	var out domain.HourlyCounts

	fields, err := s.rdb.HGetAll(ctx, s.dayKey(prizeCode, day)).Result()
	if err != nil {
		return out, err
	}
	for field, value := range fields {
		hourStr, ok := strings.CutPrefix(field, "req:")
		if !ok {
			continue
		}
		hour, err := strconv.Atoi(hourStr)
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[hour] = n
	}
	return out, nil
}

func (s *RedisOutcomeStore) dayKey(prizeCode string, day domain.Day) string {
	return s.prefix + ":" + prizeCode + ":" + string(day)
}
