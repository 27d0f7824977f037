package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contest-gateway/engine"
	"contest-gateway/engine/application"
	"contest-gateway/engine/infra"
	"contest-gateway/internal/tracing"
	"contest-gateway/middleware/ratelimit"
	rlinfra "contest-gateway/middleware/ratelimit/infra"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/urfave/cli/v2"
)

func startServe(cctx *cli.Context) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, "contestd", version, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	coord := application.Coordinator{
		Ledger:       b.ledger,
		Locker:       infra.NewKeyLocker(),
		Config:       infra.NewAtomicConfig(cfg.engineConfig()),
		Clock:        infra.SystemClock{},
		Outcomes:     b.outcomes,
		ScopeTimeout: cfg.ScopeTimeout,
		Debug:        cfg.DebugDecisions,
	}

	h := engine.NewHTTPHandler(b.catalog, coord, b.wins, b.requests)
	h.Version = version
	h.Health = b.health
	h.RetryAfter = cfg.RetryAfter

	var play []gin.HandlerFunc
	if cfg.RateEnabled {
		store := rlinfra.NewStore(cfg.RateRPS, cfg.burst)
		store.StartJanitor(ctx)
		play = append(play, ratelimit.Middleware(ratelimit.Options{
			Store:               store,
			KeyQuery:            cfg.RateKeyQuery,
			KeyHeader:           cfg.RateKeyHeader,
			TrustXForwardedFor:  cfg.TrustXFF,
			RejectStatus:        cfg.RateRejectStatus,
			RetryAfter:          cfg.RetryAfter,
			AddRateLimitHeaders: cfg.AddHeaders,
		}))
	}
	play = append(play, ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.ConcurrencyTimeout,
	}))

	if !cfg.LogVerbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.LogVerbose {
		router.Use(accessLog())
	}
	h.RegisterRoutes(router, play...)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("contestd %s listening on %s", version, cfg.ListenAddr)
	logger.Infof("engine: ledger=%s tz=%s user_cap=%d ratio=%.0f boost=[%.2f, %.2f] steepness=%.2f scope_timeout=%s commit_timeout=%s",
		cfg.LedgerBackend, cfg.location, cfg.UserDailyCap, cfg.TrafficRatio, cfg.BoostMin, cfg.BoostMax, cfg.BoostSteepness, cfg.ScopeTimeout, cfg.CommitTimeout)
	logger.Infof("rate: enabled=%v rps=%.3f burst=%d keyQuery=%q keyHeader=%q trustXFF=%v status=%d",
		cfg.RateEnabled, cfg.RateRPS, cfg.burst, cfg.RateKeyQuery, cfg.RateKeyHeader, cfg.TrustXFF, cfg.RateRejectStatus)
	logger.Infof("concurrency: max=%d acquireTimeout=%s", cfg.ConcurrencyMax, cfg.ConcurrencyTimeout)
	logger.Infof("outcome-stats: enabled=%v redis=%v prefix=%q ttl=%s", cfg.OutcomeStatsEnabled, cfg.RedisAddr != "", cfg.OutcomeStatsPrefix, cfg.OutcomeStatsTTL)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// accessLog registra uma linha por requisição no google/logger.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("%s %s %d %s %s", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
