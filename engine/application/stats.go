package application

import (
	"context"
	"math"
	"time"

	"contest-gateway/engine/domain"
)

// DailyReport resume a distribuição de vitórias de um prêmio num dia.
type DailyReport struct {
	Contest        string               `json:"contest"`
	Prize          domain.PrizeInfo     `json:"prize"`
	Day            domain.Day           `json:"day"`
	PerDay         int                  `json:"perday_limit"`
	TotalWins      int                  `json:"total_wins"`
	Remaining      int                  `json:"remaining_wins"`
	WinsByHour     [24]int              `json:"wins_by_hour"`
	IdealByHour    [24]int              `json:"ideal_by_hour"`
	RequestsByHour *domain.HourlyCounts `json:"requests_by_hour,omitempty"`
	HoursElapsed   int                  `json:"hours_elapsed"`
	HoursWithWins  int                  `json:"hours_with_wins"`
	Evenness       float64              `json:"evenness"`
}

// Stats monta relatórios a partir do ledger (e, se houver, dos contadores de
// requisições por hora).
type Stats struct {
	Wins     domain.WinReader
	Requests domain.OutcomeReader
	Config   domain.ConfigSource
	Clock    domain.Clock
}

func (s Stats) Daily(ctx context.Context, prize domain.Prize, day domain.Day) (DailyReport, error) {
	loc := time.UTC
	if s.Config != nil {
		if l := s.Config.Load().Location; l != nil {
			loc = l
		}
	}

	records, err := s.Wins.ListWins(ctx, prize.Code, day)
	if err != nil {
		return DailyReport{}, err
	}

	r := DailyReport{
		Contest:     prize.ContestCode,
		Prize:       prize.Info(),
		Day:         day,
		PerDay:      prize.PerDay,
		TotalWins:   len(records),
		Remaining:   max(prize.PerDay-len(records), 0),
		IdealByHour: HourlyPlan(prize.PerDay),
	}
	for _, rec := range records {
		r.WinsByHour[rec.Timestamp.In(loc).Hour()]++
	}

	r.HoursElapsed = s.hoursElapsed(day, loc)
	for h := 0; h < r.HoursElapsed; h++ {
		if r.WinsByHour[h] > 0 {
			r.HoursWithWins++
		}
	}
	r.Evenness = CoefficientOfVariation(r.WinsByHour[:r.HoursElapsed])

	if s.Requests != nil {
		counts, err := s.Requests.RequestsByHour(ctx, prize.Code, day)
		if err == nil {
			r.RequestsByHour = &counts
		}
	}
	return r, nil
}

// hoursElapsed conta as horas completas do dia: 24 para dias passados,
// 0 para dias futuros.
func (s Stats) hoursElapsed(day domain.Day, loc *time.Location) int {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	today := domain.DayOf(now, loc)
	switch {
	case day < today:
		return 24
	case day > today:
		return 0
	default:
		return now.In(loc).Hour()
	}
}

// HourlyPlan distribui perDay uniformemente em 24 horas; o resto fica
// espaçado ao longo do dia.
func HourlyPlan(perDay int) [24]int {
	var plan [24]int
	if perDay <= 0 {
		return plan
	}
	base, rest := perDay/24, perDay%24
	for h := 0; h < 24; h++ {
		plan[h] = base
		if (h+1)*rest/24 > h*rest/24 {
			plan[h]++
		}
	}
	return plan
}

// CoefficientOfVariation é desvio padrão / média (populacional). Média zero dá 0.
func CoefficientOfVariation(counts []int) float64 {
	if len(counts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, c := range counts {
		d := float64(c) - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(counts))) / mean
}
