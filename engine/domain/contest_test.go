package domain

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	return loc
}

func TestDayOf_UsesReferenceTimezone(t *testing.T) {
	loc := rome(t)
	// 23:30 UTC já é o dia seguinte em Roma (UTC+1 no inverno)
	at := time.Date(2025, 1, 14, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, Day("2025-01-14"), DayOf(at, time.UTC))
	assert.Equal(t, Day("2025-01-15"), DayOf(at, loc))
	assert.Equal(t, Day("2025-01-14"), DayOf(at, nil))
}

func TestDayBounds(t *testing.T) {
	loc := rome(t)

	cases := []struct {
		day      Day
		duration time.Duration
	}{
		{"2025-01-15", 24 * time.Hour},
		{"2025-03-30", 23 * time.Hour}, // entra o horário de verão
		{"2025-10-26", 25 * time.Hour}, // sai o horário de verão
	}
	for _, tc := range cases {
		t.Run(string(tc.day), func(t *testing.T) {
			start, end := tc.day.Bounds(loc)
			assert.Equal(t, tc.duration, end.Sub(start))
			assert.Equal(t, tc.day, DayOf(start, loc))
			assert.Equal(t, tc.day.AddDays(1), DayOf(end, loc))
		})
	}
}

func TestDayBounds_InvalidDayIsZero(t *testing.T) {
	start, end := Day("not-a-day").Bounds(time.UTC)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, Day("2025-02-28"), d)

	_, err = ParseDay("2025-02-30")
	assert.Error(t, err)
	_, err = ParseDay("28/02/2025")
	assert.Error(t, err)
}

func TestDayAddDays(t *testing.T) {
	assert.Equal(t, Day("2025-03-01"), Day("2025-02-28").AddDays(1))
	assert.Equal(t, Day("2024-12-31"), Day("2025-01-01").AddDays(-1))
	assert.Equal(t, Day("2025-01-01"), Day("2025-01-01").AddDays(0))
}

func TestContestStateOn(t *testing.T) {
	c := Contest{Code: "C", ValidFrom: "2025-06-01", ValidTo: "2025-06-30"}

	assert.Equal(t, ContestPending, c.StateOn("2025-05-31"))
	assert.Equal(t, ContestActive, c.StateOn("2025-06-01"))
	assert.Equal(t, ContestActive, c.StateOn("2025-06-15"))
	assert.Equal(t, ContestActive, c.StateOn("2025-06-30"))
	assert.Equal(t, ContestEnded, c.StateOn("2025-07-01"))
}

func TestContestValidate(t *testing.T) {
	ok := Contest{Code: "C", ValidFrom: "2025-06-01", ValidTo: "2025-06-01"}
	require.NoError(t, ok.Validate())

	bad := []Contest{
		{Code: "", ValidFrom: "2025-06-01", ValidTo: "2025-06-30"},
		{Code: "C", ValidFrom: "2025-06-31", ValidTo: "2025-07-30"},
		{Code: "C", ValidFrom: "2025-06-10", ValidTo: "2025-06-01"},
	}
	for _, c := range bad {
		err := c.Validate()
		assert.True(t, errors.Is(err, ErrInvalidCatalog), "contest %+v: %v", c, err)
	}
}

func TestPrizeValidate(t *testing.T) {
	require.NoError(t, Prize{Code: "P", PerDay: 0}.Validate())
	assert.ErrorIs(t, Prize{Code: "", PerDay: 1}.Validate(), ErrInvalidCatalog)
	assert.ErrorIs(t, Prize{Code: "P", PerDay: -1}.Validate(), ErrInvalidCatalog)
}

func TestKeysOrderPrizeBeforeUser(t *testing.T) {
	day := Day("2025-06-01")
	// a ordem global de aquisição depende disso, inclusive para ids "pequenos"
	assert.Less(t, string(PrizeDayKey("ZZZ", day)), string(UserDayKey("0", day)))
	assert.NotEqual(t, PrizeDayKey("x", day), PrizeDayKey("x", day.AddDays(1)))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrScopeTimeout))
	assert.True(t, IsTransient(errors.Join(errors.New("boom"), ErrLedgerUnavailable)))
	assert.False(t, IsTransient(ErrContestNotFound))
	assert.False(t, IsTransient(nil))
}
