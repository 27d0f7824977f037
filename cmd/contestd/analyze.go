package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"contest-gateway/engine"
	"contest-gateway/engine/application"
	"contest-gateway/engine/domain"
	"contest-gateway/engine/infra"

	"github.com/urfave/cli/v2"
)

type dayAnalysis struct {
	Day    domain.Day                `json:"day"`
	State  domain.ContestState       `json:"state"`
	Prizes []application.DailyReport `json:"prizes"`
}

func startAnalyze(cctx *cli.Context) error {
	code := cctx.Args().First()
	if code == "" {
		return errors.New("usage: contestd analyze <contest>")
	}
	days := max(1, cctx.Int("days"))

	cfg, err := readConfig()
	if err != nil {
		return err
	}
	b, err := openBackends(cctx.Context, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	engineCfg := infra.StaticConfig(cfg.engineConfig())
	stats := application.Stats{Wins: b.wins, Requests: b.requests, Config: engineCfg, Clock: infra.SystemClock{}}

	today := domain.DayOf(time.Now(), cfg.location)
	out := make([]dayAnalysis, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		reports, state, err := engine.ContestReport(cctx.Context, b.catalog, stats, code, day)
		if err != nil {
			return err
		}
		out = append(out, dayAnalysis{Day: day, State: state, Prizes: reports})
	}

	w := cctx.App.Writer
	if cctx.String("format") == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, a := range out {
		printAnalysis(w, code, a)
	}
	return nil
}

func printAnalysis(w io.Writer, code string, a dayAnalysis) {
	fmt.Fprintf(w, "%s %s (%s)\n", code, a.Day, a.State)
	if len(a.Prizes) == 0 {
		fmt.Fprintln(w, "  no prizes configured")
		return
	}
	for _, r := range a.Prizes {
		fmt.Fprintf(w, "  prize %s: %d/%d wins, %d remaining, %d/%d hours with wins, CV %.3f\n",
			r.Prize.Code, r.TotalWins, r.PerDay, r.Remaining, r.HoursWithWins, r.HoursElapsed, r.Evenness)
		printHours(w, r.WinsByHour, r.IdealByHour)
	}
	fmt.Fprintln(w)
}
