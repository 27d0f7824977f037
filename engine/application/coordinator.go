package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"contest-gateway/engine/domain"

	"github.com/google/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("contest-gateway/engine")

// EvaluateRequest pede uma decisão para um par (prêmio, usuário?) num instante.
// Now zero significa "agora" segundo o Clock do coordinator.
type EvaluateRequest struct {
	Prize  domain.Prize
	UserID string
	Now    time.Time
}

// Coordinator torna "ler contadores -> decidir -> gravar" indivisível por
// (prêmio, dia) e (usuário, dia), sem nada saber sobre HTTP.
//
// Chaves diferentes nunca se bloqueiam. O único ponto que pode esperar é a
// aquisição do escopo, limitada por ScopeTimeout (<= 0 espera até o ctx).
//
// Config, Clock, Random e Outcomes são opcionais.
type Coordinator struct {
	Ledger   domain.Ledger
	Locker   domain.KeyLocker
	Config   domain.ConfigSource
	Clock    domain.Clock
	Random   domain.RandomSource
	Outcomes domain.OutcomeRecorder
	NewID    func() string

	ScopeTimeout time.Duration
	Debug        bool
}

func (c Coordinator) Evaluate(ctx context.Context, req EvaluateRequest) (domain.EvaluateResult, error) {
	if c.Ledger == nil || c.Locker == nil {
		return domain.EvaluateResult{}, fmt.Errorf("%w: coordinator needs a ledger and a locker", domain.ErrInvalidConfig)
	}

	cfg := c.loadConfig()
	now := req.Now
	if now.IsZero() {
		now = c.now()
	}
	day := domain.DayOf(now, cfg.Location)

	ctx, span := tracer.Start(ctx, "engine.Evaluate", trace.WithAttributes(
		attribute.String("prize.code", req.Prize.Code),
		attribute.String("day", string(day)),
	))
	defer span.End()

	if req.Prize.PerDay <= 0 {
		res := domain.EvaluateResult{Day: day}
		c.record(ctx, req, res, now)
		return res, nil
	}

	keys := []domain.Key{domain.PrizeDayKey(req.Prize.Code, day)}
	if cfg.UserCapEnabled(req.UserID) {
		keys = append(keys, domain.UserDayKey(req.UserID, day))
	}

	acqCtx := ctx
	if c.ScopeTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, c.ScopeTimeout)
		defer cancel()
	}

	release, ok := c.Locker.Acquire(acqCtx, keys...)
	if !ok {
		span.RecordError(domain.ErrScopeTimeout)
		return domain.EvaluateResult{Day: day}, fmt.Errorf("%w: prize %s", domain.ErrScopeTimeout, req.Prize.Code)
	}

	var (
		res domain.EvaluateResult
		err error
	)
	func() {
		defer release()
		res, err = c.commit(ctx, cfg, req, day, now)
	}()
	if err != nil {
		span.RecordError(err)
		logger.Errorf("prize %s: evaluation failed: %v", req.Prize.Code, err)
		return domain.EvaluateResult{Day: day}, fmt.Errorf("%w: %w", domain.ErrLedgerUnavailable, err)
	}

	span.SetAttributes(attribute.Bool("win", res.Win), attribute.Float64("probability", res.Decision.Probability))
	c.record(ctx, req, res, now)
	return res, nil
}

// commit roda com o escopo já adquirido. Daqui em diante o cancelamento do
// chamador não interrompe o trabalho: ou a unidade confirma inteira, ou o
// ledger desfaz tudo.
func (c Coordinator) commit(
	ctx context.Context, cfg domain.EngineConfig, req EvaluateRequest, day domain.Day, now time.Time,
) (domain.EvaluateResult, error) {
	work := context.WithoutCancel(ctx)
	if cfg.CommitTimeout > 0 {
		var cancel context.CancelFunc
		work, cancel = context.WithTimeout(work, cfg.CommitTimeout)
		defer cancel()
	}

	start, end := day.Bounds(cfg.Location)
	policy := NewPolicy(cfg.Policy)
	userGate := cfg.UserCapEnabled(req.UserID)

	var res domain.EvaluateResult
	err := c.Ledger.Within(work, func(tx domain.LedgerTx) error {
		res = domain.EvaluateResult{Day: day}

		userWins := 0
		if userGate {
			n, err := tx.CountUserToday(work, req.UserID, day)
			if err != nil {
				return fmt.Errorf("count user wins: %w", err)
			}
			userWins = n
			if n >= cfg.UserDailyCap {
				// portão do usuário: não consome aleatoriedade nem capacidade
				res.Decision = domain.Decision{UserWins: n, UserCapped: true}
				return nil
			}
		}

		wins, err := tx.CountToday(work, req.Prize.Code, day)
		if err != nil {
			return fmt.Errorf("count prize wins: %w", err)
		}

		dec := policy.Decide(PolicyInput{
			WinsSoFar: wins,
			PerDay:    req.Prize.PerDay,
			Now:       now,
			DayStart:  start,
			DayEnd:    end,
		})
		dec.UserWins = userWins
		res.Decision = dec

		if !policy.Sample(dec, c.random()) {
			return nil
		}

		guard := domain.Guard{PrizeCap: req.Prize.PerDay}
		if userGate {
			guard.UserCap = cfg.UserDailyCap
		}
		saved, err := tx.AppendWin(work, domain.WinRecord{
			ID:          c.newID(),
			PrizeCode:   req.Prize.Code,
			ContestCode: req.Prize.ContestCode,
			UserID:      req.UserID,
			Day:         day,
			Timestamp:   now,
		}, guard)
		if errors.Is(err, domain.ErrCapReached) {
			logger.Warningf("prize %s: slot taken by a concurrent writer on %s", req.Prize.Code, day)
			return nil
		}
		if err != nil {
			return fmt.Errorf("append win: %w", err)
		}

		info := req.Prize.Info()
		res.Win = true
		res.Prize = &info
		res.Record = &saved
		return nil
	})
	if err != nil {
		return domain.EvaluateResult{}, err
	}

	if c.Debug {
		d := res.Decision
		logger.Infof("decision prize=%s user=%q day=%s p=%.5f base=%.5f factor=%.3f deficit=%.2f wins=%d user_wins=%d capped=%v win=%v",
			req.Prize.Code, req.UserID, day, d.Probability, d.Base, d.Factor, d.Deficit, d.WinsSoFar, d.UserWins, d.UserCapped, res.Win)
	}
	if res.Win {
		logger.Infof("prize %s won by %q on %s (%d/%d)", req.Prize.Code, req.UserID, day, res.Decision.WinsSoFar+1, req.Prize.PerDay)
	}
	return res, nil
}

func (c Coordinator) record(ctx context.Context, req EvaluateRequest, res domain.EvaluateResult, now time.Time) {
	if c.Outcomes == nil {
		return
	}
	_ = c.Outcomes.Record(ctx, domain.OutcomeEvent{
		ContestCode: req.Prize.ContestCode,
		PrizeCode:   req.Prize.Code,
		Win:         res.Win,
		At:          now,
	})
}

func (c Coordinator) loadConfig() domain.EngineConfig {
	if c.Config == nil {
		return domain.DefaultEngineConfig()
	}
	cfg := c.Config.Load()
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return cfg
}

func (c Coordinator) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

func (c Coordinator) random() domain.RandomSource {
	if c.Random == nil {
		return globalRandom{}
	}
	return c.Random
}

func (c Coordinator) newID() string {
	if c.NewID == nil {
		return uuid.NewString()
	}
	return c.NewID()
}

// globalRandom usa o gerador global de math/rand/v2, seguro entre goroutines.
type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
