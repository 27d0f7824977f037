package application

import (
	"context"
	"testing"
	"time"

	"contest-gateway/engine/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyPlan(t *testing.T) {
	plan := HourlyPlan(45)
	sum := 0
	for _, n := range plan {
		assert.True(t, n == 1 || n == 2, "hour with %d wins", n)
		sum += n
	}
	assert.Equal(t, 45, sum)

	assert.Equal(t, [24]int{}, HourlyPlan(0))

	plan = HourlyPlan(48)
	for _, n := range plan {
		assert.Equal(t, 2, n)
	}

	plan = HourlyPlan(1)
	assert.Equal(t, 1, plan[23])
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, CoefficientOfVariation(nil))
	assert.Equal(t, 0.0, CoefficientOfVariation([]int{0, 0, 0}))
	assert.Equal(t, 0.0, CoefficientOfVariation([]int{2, 2, 2, 2}))
	assert.InDelta(t, 1.0, CoefficientOfVariation([]int{0, 2}), 1e-12)
}

func TestStats_DailyReport(t *testing.T) {
	ctx := context.Background()
	ledger := infra.NewMemoryLedger()
	outcomes := infra.NewMemoryOutcomeStore(time.UTC)
	c := newCoordinator(ledger)
	c.Outcomes = outcomes
	p := prize("P", 45)

	// uma vitória às 01h, duas às 03h
	for _, h := range []int{1, 3, 3} {
		res, err := c.Evaluate(ctx, EvaluateRequest{Prize: p, Now: time.Date(2025, 6, 1, h, 15, 0, 0, time.UTC)})
		require.NoError(t, err)
		require.True(t, res.Win)
	}

	s := Stats{
		Wins:     ledger,
		Requests: outcomes,
		Clock:    fixedClock(time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC)),
	}
	r, err := s.Daily(ctx, p, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, "C1", r.Contest)
	assert.Equal(t, 45, r.PerDay)
	assert.Equal(t, 3, r.TotalWins)
	assert.Equal(t, 42, r.Remaining)
	assert.Equal(t, 1, r.WinsByHour[1])
	assert.Equal(t, 2, r.WinsByHour[3])
	assert.Equal(t, 4, r.HoursElapsed)
	assert.Equal(t, 2, r.HoursWithWins)
	assert.Equal(t, HourlyPlan(45), r.IdealByHour)
	require.NotNil(t, r.RequestsByHour)
	assert.Equal(t, int64(2), r.RequestsByHour[3])

	// dia passado conta as 24 horas; dia futuro nenhuma
	s.Clock = fixedClock(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	r, err = s.Daily(ctx, p, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 24, r.HoursElapsed)

	r, err = s.Daily(ctx, p, "2025-06-05")
	require.NoError(t, err)
	assert.Equal(t, 0, r.HoursElapsed)
	assert.Equal(t, 0, r.TotalWins)
	assert.Equal(t, 0.0, r.Evenness)
}
