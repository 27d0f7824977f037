// Package simulation reproduz dias inteiros de tráfego contra o coordinator
// real, com relógio e sorteio determinísticos. Serve para medir se as vitórias
// se espalham pelo dia.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"contest-gateway/engine/application"
	"contest-gateway/engine/domain"
	"contest-gateway/engine/infra"
)

type Config struct {
	PerDay   int
	Requests int
	Days     int
	Seed     uint64

	// Users > 0 sorteia um usuário por requisição entre Users distintos;
	// 0 simula só chamadas anônimas.
	Users   int
	UserCap int

	Policy   domain.PolicyConfig
	Start    domain.Day
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		PerDay:   45,
		Requests: 4500,
		Days:     100,
		Seed:     1,
		UserCap:  3,
		Policy:   domain.DefaultPolicyConfig(),
		Start:    "2025-01-01",
		Location: time.UTC,
	}
}

func (c Config) Validate() error {
	if c.PerDay < 0 {
		return fmt.Errorf("%w: per day must be >= 0", domain.ErrInvalidConfig)
	}
	if c.Requests < 0 || c.Days <= 0 {
		return fmt.Errorf("%w: requests must be >= 0 and days > 0", domain.ErrInvalidConfig)
	}
	if _, err := domain.ParseDay(string(c.Start)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return c.Policy.Validate()
}

type DayResult struct {
	Day          domain.Day `json:"day"`
	Wins         int        `json:"wins"`
	WinsByHour   [24]int    `json:"wins_by_hour"`
	HoursCovered int        `json:"hours_covered"`
	CV           float64    `json:"cv"`
}

type Result struct {
	Days []DayResult `json:"days"`

	TotalWins        int     `json:"total_wins"`
	HourTotals       [24]int `json:"hour_totals"`
	FullCoverageDays int     `json:"full_coverage_days"`
	MeanHoursCovered float64 `json:"mean_hours_covered"`
	MeanCV           float64 `json:"mean_cv"`
	MaxWinsPerDay    int     `json:"max_wins_per_day"`
	MaxUserWins      int     `json:"max_user_wins"`
}

// Run simula cfg.Days dias. Cada dia recebe cfg.Requests chegadas uniformes,
// avaliadas em ordem de horário por um Coordinator sobre um MemoryLedger.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	rnd := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	seq := 0
	coord := application.Coordinator{
		Ledger: infra.NewMemoryLedger(),
		Locker: infra.NewKeyLocker(),
		Config: infra.StaticConfig(domain.EngineConfig{
			Policy:       cfg.Policy,
			UserDailyCap: cfg.UserCap,
			Location:     cfg.Location,
		}),
		Random: rnd,
		NewID: func() string {
			seq++
			return "sim-" + strconv.Itoa(seq)
		},
	}
	prize := domain.Prize{Code: "SIM", Name: "Simulated prize", ContestCode: "SIM", PerDay: cfg.PerDay}

	var res Result
	for i := 0; i < cfg.Days; i++ {
		day := cfg.Start.AddDays(i)
		start, end := day.Bounds(cfg.Location)
		span := end.Sub(start)

		arrivals := make([]time.Duration, cfg.Requests)
		for j := range arrivals {
			arrivals[j] = time.Duration(rnd.Int64N(int64(span)))
		}
		slices.Sort(arrivals)

		dr := DayResult{Day: day}
		userWins := make(map[string]int)
		for _, offset := range arrivals {
			req := application.EvaluateRequest{Prize: prize, Now: start.Add(offset)}
			if cfg.Users > 0 {
				req.UserID = "user-" + strconv.Itoa(rnd.IntN(cfg.Users))
			}

			out, err := coord.Evaluate(ctx, req)
			if err != nil {
				return Result{}, fmt.Errorf("day %s: %w", day, err)
			}
			if !out.Win {
				continue
			}
			dr.Wins++
			dr.WinsByHour[req.Now.In(cfg.Location).Hour()]++
			if req.UserID != "" {
				userWins[req.UserID]++
				res.MaxUserWins = max(res.MaxUserWins, userWins[req.UserID])
			}
		}

		for h, n := range dr.WinsByHour {
			res.HourTotals[h] += n
			if n > 0 {
				dr.HoursCovered++
			}
		}
		dr.CV = application.CoefficientOfVariation(dr.WinsByHour[:])

		res.Days = append(res.Days, dr)
		res.TotalWins += dr.Wins
		res.MaxWinsPerDay = max(res.MaxWinsPerDay, dr.Wins)
		if dr.HoursCovered == 24 {
			res.FullCoverageDays++
		}
		res.MeanHoursCovered += float64(dr.HoursCovered)
		res.MeanCV += dr.CV
	}

	n := float64(len(res.Days))
	res.MeanHoursCovered /= n
	res.MeanCV /= n
	return res, nil
}

// CoverageRate é a fração de dias em que todas as 24 horas tiveram vitória.
func (r Result) CoverageRate() float64 {
	if len(r.Days) == 0 {
		return 0
	}
	return float64(r.FullCoverageDays) / float64(len(r.Days))
}
