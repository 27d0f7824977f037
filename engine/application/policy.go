package application

import (
	"math"
	"time"

	"contest-gateway/engine/domain"
)

// PolicyInput são os contadores e o instante de uma avaliação.
// AssumedDailyRequests <= 0 faz a política usar PerDay × TrafficRatio.
type PolicyInput struct {
	WinsSoFar            int
	PerDay               int
	Now                  time.Time
	DayStart             time.Time
	DayEnd               time.Time
	AssumedDailyRequests float64
}

// Policy decide a probabilidade de vitória. É pura: não guarda estado,
// não faz I/O e nunca devolve erro.
type Policy struct {
	Config domain.PolicyConfig
}

func NewPolicy(cfg domain.PolicyConfig) Policy {
	return Policy{Config: cfg}
}

// AssumedDailyRequests estima o tráfego do dia a partir do teto do prêmio.
// Serve só para dimensionar a probabilidade, nunca como teto.
func AssumedDailyRequests(perDay int, ratio float64) float64 {
	return float64(perDay) * ratio
}

// Decide calcula p ∈ [0, 1].
//
// A linha de base distribui o que resta (R) sobre as requisições esperadas
// até o fim do dia. O fator de correção é uma logística no déficit
// D = PerDay×f − WinsSoFar: acelera quando atrasado, freia quando adiantado.
func (p Policy) Decide(in PolicyInput) domain.Decision {
	d := domain.Decision{WinsSoFar: in.WinsSoFar}

	if in.PerDay <= 0 {
		return d
	}
	if !in.DayEnd.After(in.DayStart) || !in.Now.Before(in.DayEnd) {
		return d
	}

	remaining := in.PerDay - in.WinsSoFar
	d.Remaining = max(remaining, 0)
	if remaining <= 0 {
		return d
	}

	f := dayFraction(in.Now, in.DayStart, in.DayEnd)
	d.Fraction = f

	d.Deficit = float64(in.PerDay)*f - float64(in.WinsSoFar)

	assumed := in.AssumedDailyRequests
	if assumed <= 0 {
		assumed = AssumedDailyRequests(in.PerDay, p.Config.TrafficRatio)
	}
	expectedLeft := math.Max(1, assumed*(1-f))

	d.Base = float64(remaining) / expectedLeft
	d.Factor = p.Factor(d.Deficit)

	// nunca acima de 1 nem acima do que resta numa única requisição
	ceiling := math.Min(1, float64(remaining))
	d.Probability = clamp(d.Base*d.Factor, 0, ceiling)
	return d
}

// Factor é monotônico em deficit e limitado a (MinBoost, MaxBoost).
// Com deficit = 0 vale a média geométrica dos limites.
func (p Policy) Factor(deficit float64) float64 {
	lo, hi := p.Config.MinBoost, p.Config.MaxBoost
	if lo <= 0 || hi < lo {
		return 1
	}
	s := 1 / (1 + math.Exp(-p.Config.Steepness*deficit))
	return lo * math.Pow(hi/lo, s)
}

// Sample sorteia u ~ U[0,1) e devolve u < p.
func (p Policy) Sample(d domain.Decision, rnd domain.RandomSource) bool {
	if d.Probability <= 0 {
		return false
	}
	return rnd.Float64() < d.Probability
}

func dayFraction(now, start, end time.Time) float64 {
	total := end.Sub(start)
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	f := float64(elapsed) / float64(total)
	if f >= 1 {
		return math.Nextafter(1, 0)
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
