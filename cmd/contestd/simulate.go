package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"contest-gateway/engine/application"
	"contest-gateway/engine/simulation"

	"github.com/urfave/cli/v2"
)

func startSimulate(cctx *cli.Context) error {
	sim := simulation.DefaultConfig()
	sim.PerDay = cctx.Int("per-day")
	sim.Requests = cctx.Int("requests")
	sim.Days = cctx.Int("days")
	sim.Seed = cctx.Uint64("seed")
	sim.Users = cctx.Int("users")
	sim.UserCap = cctx.Int("user-cap")

	res, err := simulation.Run(cctx.Context, sim)
	if err != nil {
		return err
	}

	out := cctx.App.Writer
	if cctx.String("format") == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printSimulation(out, sim, res)
	return nil
}

func printSimulation(w io.Writer, sim simulation.Config, res simulation.Result) {
	fmt.Fprintf(w, "simulated %d days: per_day=%d requests=%d seed=%d users=%d user_cap=%d\n",
		sim.Days, sim.PerDay, sim.Requests, sim.Seed, sim.Users, sim.UserCap)
	fmt.Fprintf(w, "total wins:            %d (max %d in a day)\n", res.TotalWins, res.MaxWinsPerDay)
	fmt.Fprintf(w, "days with 24/24 hours: %d (%.1f%%)\n", res.FullCoverageDays, 100*res.CoverageRate())
	fmt.Fprintf(w, "mean hours covered:    %.2f\n", res.MeanHoursCovered)
	fmt.Fprintf(w, "mean hourly CV:        %.3f\n", res.MeanCV)
	if sim.Users > 0 {
		fmt.Fprintf(w, "max wins by one user:  %d\n", res.MaxUserWins)
	}

	fmt.Fprintln(w, "\nwins per hour (all days):")
	printHours(w, res.HourTotals, application.HourlyPlan(sim.PerDay*sim.Days))
}

// printHours imprime uma barra por hora com o valor ideal ao lado.
func printHours(w io.Writer, counts [24]int, ideal [24]int) {
	peak := 1
	for _, n := range counts {
		peak = max(peak, n)
	}
	for h, n := range counts {
		bar := strings.Repeat("#", n*40/peak)
		fmt.Fprintf(w, "  %02d:00 %6d (ideal %6d) %s\n", h, n, ideal[h], bar)
	}
}
