// loadgen dispara jogadas ritmadas contra o /play e resume o resultado.
//
//	loadgen --target http://localhost:8080 --contest SUMMER --rps 50 --duration 2m --users 500
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/google/logger"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

func main() {
	lg := logger.Init("loadgen", true, false, io.Discard)
	defer lg.Close()

	app := cli.NewApp()
	app.Name = "loadgen"
	app.Usage = "paced load generator for the /play endpoint"
	app.Action = run
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "target", Value: "http://localhost:8080", EnvVars: []string{"LOADGEN_TARGET"}},
		&cli.StringFlag{Name: "contest", Required: true, EnvVars: []string{"LOADGEN_CONTEST"}},
		&cli.Float64Flag{Name: "rps", Value: 10, Usage: "requests per second"},
		&cli.DurationFlag{Name: "duration", Value: time.Minute},
		&cli.IntFlag{Name: "users", Value: 100, Usage: "distinct users (0 = anonymous)"},
		&cli.IntFlag{Name: "workers", Value: 8},
		&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "per request timeout"},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("loadgen: %v", err)
	}
}

type playResult struct {
	Win       bool   `json:"win"`
	Timestamp string `json:"timestamp"`
}

type summary struct {
	mu       sync.Mutex
	sent     int
	wins     int
	statuses map[int]int
	errors   int
	byHour   [24]int
	winners  map[string]int
}

func (s *summary) add(user string, status int, res playResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent++
	if err != nil {
		s.errors++
		return
	}
	s.statuses[status]++
	if !res.Win {
		return
	}
	s.wins++
	if user != "" {
		s.winners[user]++
	}
	if ts, err := time.Parse(time.RFC3339, res.Timestamp); err == nil {
		s.byHour[ts.Hour()]++
	}
}

func run(cctx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, stop := context.WithTimeout(ctx, cctx.Duration("duration"))
	defer stop()

	base, err := url.Parse(cctx.String("target"))
	if err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	base.Path = "/play"

	client := &http.Client{Timeout: cctx.Duration("timeout")}
	limiter := rate.NewLimiter(rate.Limit(cctx.Float64("rps")), 1)
	users := cctx.Int("users")
	contest := cctx.String("contest")

	sum := &summary{statuses: make(map[int]int), winners: make(map[string]int)}
	jobs := make(chan string)

	var wg sync.WaitGroup
	for i := 0; i < max(1, cctx.Int("workers")); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				status, res, err := play(ctx, client, *base, contest, user)
				sum.add(user, status, res, err)
			}
		}()
	}

	logger.Infof("loadgen: %s contest=%s rps=%.2f duration=%s users=%d", base, contest, cctx.Float64("rps"), cctx.Duration("duration"), users)
	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		user := ""
		if users > 0 {
			user = fmt.Sprintf("user-%d", rand.IntN(users))
		}
		select {
		case jobs <- user:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	report(cctx.App.Writer, sum)
	return nil
}

func play(ctx context.Context, client *http.Client, u url.URL, contest, user string) (int, playResult, error) {
	q := url.Values{"contest": {contest}}
	if user != "" {
		q.Set("user", user)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, playResult{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, playResult{}, err
	}
	defer resp.Body.Close()

	var res playResult
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return resp.StatusCode, playResult{}, err
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, res, nil
}

func report(w io.Writer, s *summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(w, "sent %d requests, %d wins, %d transport errors\n", s.sent, s.wins, s.errors)

	codes := make([]int, 0, len(s.statuses))
	for code := range s.statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  HTTP %d: %d\n", code, s.statuses[code])
	}

	top := 0
	for _, n := range s.winners {
		top = max(top, n)
	}
	fmt.Fprintf(w, "distinct winners: %d (max wins by one user: %d)\n", len(s.winners), top)

	fmt.Fprintln(w, "wins by hour (server time):")
	for h, n := range s.byHour {
		if n > 0 {
			fmt.Fprintf(w, "  %02d:00 %d\n", h, n)
		}
	}
}
