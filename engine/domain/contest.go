package domain

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day é uma data de calendário no fuso de referência (formato 2006-01-02).
// O formato é ordenável lexicograficamente e serve direto como parte de chave.
type Day string

// DayOf devolve o dia de t no fuso loc. loc nil significa UTC.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(dayLayout))
}

func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(s), nil
}

// Bounds devolve [start, end) do dia no fuso loc. Em dias com troca de horário
// a duração não é 24h; por isso end é calculado pela data seguinte.
func (d Day) Bounds(loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dayLayout, string(d), loc)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	start = t
	end = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}

// AddDays desloca o dia em n dias de calendário.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(dayLayout))
}

func (d Day) String() string { return string(d) }

type ContestState string

const (
	ContestPending ContestState = "PENDING"
	ContestActive  ContestState = "ACTIVE"
	ContestEnded   ContestState = "ENDED"
)

// Contest tem janela ativa inclusiva [ValidFrom, ValidTo].
type Contest struct {
	Code      string
	Name      string
	ValidFrom Day
	ValidTo   Day
}

// StateOn é função pura do dia contra a janela do concurso.
func (c Contest) StateOn(day Day) ContestState {
	switch {
	case day < c.ValidFrom:
		return ContestPending
	case day > c.ValidTo:
		return ContestEnded
	default:
		return ContestActive
	}
}

func (c Contest) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: contest code is empty", ErrInvalidCatalog)
	}
	if _, err := ParseDay(string(c.ValidFrom)); err != nil {
		return fmt.Errorf("%w: contest %s: %v", ErrInvalidCatalog, c.Code, err)
	}
	if _, err := ParseDay(string(c.ValidTo)); err != nil {
		return fmt.Errorf("%w: contest %s: %v", ErrInvalidCatalog, c.Code, err)
	}
	if c.ValidTo < c.ValidFrom {
		return fmt.Errorf("%w: contest %s ends before it starts", ErrInvalidCatalog, c.Code)
	}
	return nil
}

// Prize pertence a exatamente um concurso. PerDay é o teto diário de vitórias.
type Prize struct {
	Code        string
	Name        string
	ContestCode string
	PerDay      int
}

func (p Prize) Info() PrizeInfo {
	return PrizeInfo{Code: p.Code, Name: p.Name}
}

func (p Prize) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("%w: prize code is empty", ErrInvalidCatalog)
	}
	if p.PerDay < 0 {
		return fmt.Errorf("%w: prize %s has negative per_day", ErrInvalidCatalog, p.Code)
	}
	return nil
}

// PrizeInfo é o que volta para quem chamou quando há vitória.
type PrizeInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
