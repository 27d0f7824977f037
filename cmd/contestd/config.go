package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"contest-gateway/engine/domain"

	"github.com/caarlos0/env/v11"
)

type config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"memory"`
	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string `env:"DB_DSN" envDefault:"contest.db"`
	// CatalogFile é carregado no catálogo em memória quando o backend não é sql.
	CatalogFile   string `env:"CATALOG_FILE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"contest"`

	Timezone       string        `env:"CONTEST_TIMEZONE" envDefault:"Europe/Rome"`
	UserDailyCap   int           `env:"USER_DAILY_CAP" envDefault:"3"`
	TrafficRatio   float64       `env:"TRAFFIC_RATIO" envDefault:"100"`
	BoostMin       float64       `env:"BOOST_MIN" envDefault:"0.02"`
	BoostMax       float64       `env:"BOOST_MAX" envDefault:"50"`
	BoostSteepness float64       `env:"BOOST_STEEPNESS" envDefault:"10"`
	ScopeTimeout   time.Duration `env:"SCOPE_TIMEOUT" envDefault:"2s"`
	CommitTimeout  time.Duration `env:"COMMIT_TIMEOUT" envDefault:"5s"`

	RateEnabled      bool          `env:"RATE_ENABLED" envDefault:"true"`
	RateRPS          float64       `env:"RATE_RPS" envDefault:"10"`
	RateBurst        *int          `env:"RATE_BURST"`
	RateKeyQuery     string        `env:"RATE_KEY_QUERY" envDefault:"user"`
	RateKeyHeader    string        `env:"RATE_KEY_HEADER"`
	TrustXFF         bool          `env:"TRUST_XFF" envDefault:"false"`
	RetryAfter       time.Duration `env:"RETRY_AFTER" envDefault:"1s"`
	RateRejectStatus int           `env:"RATE_REJECT_STATUS" envDefault:"420"`
	AddHeaders       bool          `env:"ADD_RATELIMIT_HEADERS" envDefault:"false"`

	ConcurrencyMax     int           `env:"CONCURRENCY_MAX" envDefault:"100"`
	ConcurrencyTimeout time.Duration `env:"CONCURRENCY_TIMEOUT" envDefault:"0s"`

	OutcomeStatsEnabled bool          `env:"OUTCOME_STATS_ENABLED" envDefault:"false"`
	OutcomeStatsPrefix  string        `env:"OUTCOME_STATS_PREFIX" envDefault:"contest:outcomes"`
	OutcomeStatsTTL     time.Duration `env:"OUTCOME_STATS_TTL" envDefault:"72h"`

	OTelEndpoint   string `env:"OTEL_ENDPOINT"`
	LogVerbose     bool   `env:"LOG_VERBOSE" envDefault:"false"`
	DebugDecisions bool   `env:"DEBUG_DECISIONS" envDefault:"false"`

	location *time.Location
	burst    int
}

func readConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LedgerBackend = strings.ToLower(strings.TrimSpace(cfg.LedgerBackend))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return config{}, fmt.Errorf("CONTEST_TIMEZONE: %w", err)
	}
	cfg.location = loc

	// O burst deixa passar uma rajada inicial. Com RPS abaixo de 1 o padrão 20
	// dá a impressão de que o limite não funciona, então cai para 1.
	switch {
	case cfg.RateBurst != nil:
		cfg.burst = *cfg.RateBurst
	case cfg.RateRPS > 0 && cfg.RateRPS < 1:
		cfg.burst = 1
	default:
		cfg.burst = 20
	}

	switch cfg.LedgerBackend {
	case "memory", "sql":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return config{}, errors.New("REDIS_ADDR is required when LEDGER_BACKEND=redis")
		}
	default:
		return config{}, fmt.Errorf("LEDGER_BACKEND must be memory, sql or redis, got %q", cfg.LedgerBackend)
	}
	if cfg.RateRPS <= 0 {
		return config{}, errors.New("RATE_RPS must be > 0")
	}
	if cfg.burst <= 0 {
		return config{}, errors.New("RATE_BURST must be > 0")
	}
	if cfg.RateRejectStatus < 400 || cfg.RateRejectStatus > 599 {
		return config{}, errors.New("RATE_REJECT_STATUS must be a 4xx or 5xx status")
	}
	if cfg.ConcurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.UserDailyCap < 0 {
		return config{}, errors.New("USER_DAILY_CAP must be >= 0")
	}
	if err := cfg.engineConfig().Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// engineConfig é o snapshot entregue ao coordinator.
func (c config) engineConfig() domain.EngineConfig {
	return domain.EngineConfig{
		Policy: domain.PolicyConfig{
			TrafficRatio: c.TrafficRatio,
			MinBoost:     c.BoostMin,
			MaxBoost:     c.BoostMax,
			Steepness:    c.BoostSteepness,
		},
		UserDailyCap:  c.UserDailyCap,
		Location:      c.location,
		CommitTimeout: c.CommitTimeout,
	}
}
