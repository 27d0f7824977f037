package main

import (
	"io"
	"os"
	_ "time/tzdata"

	"github.com/google/logger"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	lg := logger.Init("contestd", true, false, io.Discard)
	defer lg.Close()

	if err := newApp().Run(os.Args); err != nil {
		logger.Fatalf("contestd: %v", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "contestd"
	app.Usage = "instant-win contest gateway"
	app.Version = version
	app.Action = cli.ShowAppHelp
	app.Commands = []*cli.Command{
		{
			Action:      startServe,
			Name:        "serve",
			Usage:       "Start the HTTP gateway",
			Category:    "Server",
			Description: `Serves /play, /stats, / and /healthz. Configuration comes from environment variables (LISTEN_ADDR, LEDGER_BACKEND, ...).`,
		},
		{
			Action:      startMigrate,
			Name:        "migrate",
			Usage:       "Create or update the SQL tables",
			Category:    "Catalog",
			Description: `Runs AutoMigrate for contests, prizes, win_records and daily_counters on DB_DRIVER/DB_DSN.`,
		},
		{
			Action:    startSeed,
			Name:      "seed",
			Usage:     "Load contests and prizes from a TOML file into the SQL catalog",
			ArgsUsage: "--file contests.toml",
			Category:  "Catalog",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "catalog TOML file", Required: true},
			},
		},
		{
			Action:      startSimulate,
			Name:        "simulate",
			Usage:       "Simulate days of traffic against the allocation policy",
			Category:    "Analysis",
			Description: `Drives the real coordinator over an in-memory ledger with a deterministic clock and random source.`,
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "per-day", Value: 45, Usage: "daily prize cap"},
				&cli.IntFlag{Name: "requests", Value: 4500, Usage: "requests per day"},
				&cli.IntFlag{Name: "days", Value: 100, Usage: "number of simulated days"},
				&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "random seed"},
				&cli.IntFlag{Name: "users", Value: 0, Usage: "distinct users (0 = anonymous requests)"},
				&cli.IntFlag{Name: "user-cap", Value: 3, Usage: "wins per user per day (0 disables)"},
				&cli.StringFlag{Name: "format", Value: "text", Usage: "text or json"},
			},
		},
		{
			Action:    startAnalyze,
			Name:      "analyze",
			Usage:     "Print the hourly win distribution of a contest",
			ArgsUsage: "<contest>",
			Category:  "Analysis",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "days", Value: 1, Usage: "number of days ending today"},
				&cli.StringFlag{Name: "format", Value: "text", Usage: "text or json"},
			},
		},
	}
	return app
}
