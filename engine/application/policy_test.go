package application

import (
	"math"
	"testing"
	"time"

	"contest-gateway/engine/domain"

	"github.com/stretchr/testify/assert"
)

var (
	testDayStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	testDayEnd   = testDayStart.Add(24 * time.Hour)
)

func at(hour, minute int) time.Time {
	return testDayStart.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func input(wins, perDay int, now time.Time) PolicyInput {
	return PolicyInput{WinsSoFar: wins, PerDay: perDay, Now: now, DayStart: testDayStart, DayEnd: testDayEnd}
}

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func TestPolicy_DegenerateInputsGiveZero(t *testing.T) {
	p := NewPolicy(domain.DefaultPolicyConfig())

	cases := map[string]PolicyInput{
		"zero cap":       input(0, 0, at(12, 0)),
		"negative cap":   input(0, -3, at(12, 0)),
		"exhausted":      input(45, 45, at(12, 0)),
		"over cap":       input(50, 45, at(12, 0)),
		"day over":       input(0, 45, testDayEnd),
		"after day":      input(0, 45, testDayEnd.Add(time.Hour)),
		"inverted range": {WinsSoFar: 0, PerDay: 45, Now: at(1, 0), DayStart: testDayEnd, DayEnd: testDayStart},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			d := p.Decide(in)
			assert.Zero(t, d.Probability)
			assert.False(t, p.Sample(d, fixedRandom(0)))
		})
	}
}

func TestPolicy_StartOfDayIsAboutOneInRatio(t *testing.T) {
	p := NewPolicy(domain.DefaultPolicyConfig())

	d := p.Decide(input(0, 45, testDayStart))
	// D = 0 => fator 1 com os limites padrão; base = 45 / 4500
	assert.InDelta(t, 1.0, d.Factor, 1e-9)
	assert.InDelta(t, 0.01, d.Probability, 1e-9)
	assert.Equal(t, 45, d.Remaining)
}

func TestPolicy_BehindScheduleSpeedsUp(t *testing.T) {
	p := NewPolicy(domain.DefaultPolicyConfig())

	onTime := p.Decide(input(22, 45, at(12, 0)))
	behind := p.Decide(input(10, 45, at(12, 0)))
	ahead := p.Decide(input(35, 45, at(12, 0)))

	assert.Greater(t, behind.Deficit, 0.0)
	assert.Less(t, ahead.Deficit, 0.0)
	assert.Greater(t, behind.Probability, onTime.Probability)
	assert.Less(t, ahead.Probability, onTime.Probability)
}

func TestPolicy_FactorIsBoundedAndMonotonic(t *testing.T) {
	cfg := domain.DefaultPolicyConfig()
	p := NewPolicy(cfg)

	prev := 0.0
	for d := -50.0; d <= 50; d += 0.5 {
		f := p.Factor(d)
		assert.GreaterOrEqual(t, f, cfg.MinBoost-1e-9)
		assert.LessOrEqual(t, f, cfg.MaxBoost+1e-9)
		assert.GreaterOrEqual(t, f, prev)
		prev = f
	}
	assert.InDelta(t, math.Sqrt(cfg.MinBoost*cfg.MaxBoost), p.Factor(0), 1e-9)
}

func TestPolicy_ProbabilityNeverExceedsOne(t *testing.T) {
	p := NewPolicy(domain.DefaultPolicyConfig())

	// últimos segundos do dia, muito atrasado: base e fator enormes
	d := p.Decide(input(0, 45, testDayEnd.Add(-time.Second)))
	assert.Equal(t, 1.0, d.Probability)

	for wins := 0; wins <= 45; wins++ {
		for h := 0; h < 24; h++ {
			d := p.Decide(input(wins, 45, at(h, 59)))
			assert.GreaterOrEqual(t, d.Probability, 0.0)
			assert.LessOrEqual(t, d.Probability, 1.0)
		}
	}
}

func TestPolicy_AssumedRequestsOverride(t *testing.T) {
	p := NewPolicy(domain.DefaultPolicyConfig())

	in := input(0, 10, testDayStart)
	in.AssumedDailyRequests = 100
	d := p.Decide(in)
	assert.InDelta(t, 0.1, d.Probability, 1e-9)
}

func TestPolicy_Sample(t *testing.T) {
	p := NewPolicy(domain.DefaultPolicyConfig())
	d := domain.Decision{Probability: 0.3}

	assert.True(t, p.Sample(d, fixedRandom(0.29)))
	assert.False(t, p.Sample(d, fixedRandom(0.3)))
	assert.False(t, p.Sample(domain.Decision{}, fixedRandom(0)))
}

func TestDayFraction(t *testing.T) {
	assert.Equal(t, 0.0, dayFraction(testDayStart.Add(-time.Hour), testDayStart, testDayEnd))
	assert.InDelta(t, 0.5, dayFraction(at(12, 0), testDayStart, testDayEnd), 1e-12)
	assert.Less(t, dayFraction(testDayEnd, testDayStart, testDayEnd), 1.0)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, clamp(3, 0, 1))
	assert.Equal(t, 0.0, clamp(-1, 0, 1))
	assert.Equal(t, 0.25, clamp(0.25, 0, 1))
}
