package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contest-gateway/engine/domain"
	"contest-gateway/engine/infra"

	"github.com/google/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// backends agrupa o que o motor e os relatórios precisam, já ligado ao
// armazenamento escolhido em LEDGER_BACKEND.
type backends struct {
	ledger  domain.Ledger
	wins    domain.WinReader
	catalog domain.Catalog

	// nil quando OUTCOME_STATS_ENABLED=false
	outcomes domain.OutcomeRecorder
	requests domain.OutcomeReader

	health  func(ctx context.Context) error
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config) (*backends, error) {
	b := &backends{}
	var (
		db  *gorm.DB
		rdb *redis.Client
	)

	needRedis := cfg.LedgerBackend == "redis" || (cfg.OutcomeStatsEnabled && cfg.RedisAddr != "")
	if needRedis {
		var err error
		rdb, err = openRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
	}

	switch cfg.LedgerBackend {
	case "sql":
		var err error
		db, err = openSQL(cfg)
		if err != nil {
			b.close()
			return nil, err
		}
		ledger := infra.NewGormLedger(db)
		b.ledger, b.wins = ledger, ledger
		b.catalog = infra.NewGormCatalog(db)
	case "redis":
		ledger := infra.NewRedisLedger(rdb, infra.WithLedgerPrefix(cfg.RedisPrefix+":wins"))
		b.ledger, b.wins = ledger, ledger
	default:
		ledger := infra.NewMemoryLedger()
		b.ledger, b.wins = ledger, ledger
	}

	if b.catalog == nil {
		catalog, err := memoryCatalog(ctx, cfg.CatalogFile)
		if err != nil {
			b.close()
			return nil, err
		}
		b.catalog = catalog
	}

	if cfg.OutcomeStatsEnabled {
		if rdb != nil {
			store := infra.NewRedisOutcomeStore(rdb,
				infra.WithOutcomePrefix(cfg.OutcomeStatsPrefix),
				infra.WithOutcomeTTL(cfg.OutcomeStatsTTL),
				infra.WithOutcomeLocation(cfg.location),
			)
			b.outcomes, b.requests = store, store
		} else {
			store := infra.NewMemoryOutcomeStore(cfg.location)
			b.outcomes, b.requests = store, store
		}
	}

	b.health = func(ctx context.Context) error {
		var errs []error
		if db != nil {
			if sqlDB, err := db.DB(); err != nil {
				errs = append(errs, err)
			} else if err := sqlDB.PingContext(ctx); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				errs = append(errs, fmt.Errorf("redis: %w", err))
			}
		}
		return errors.Join(errs...)
	}
	return b, nil
}

func openSQL(cfg config) (*gorm.DB, error) {
	db, err := infra.OpenDatabase(cfg.DBDriver, cfg.DBDSN, cfg.LogVerbose)
	if err != nil {
		return nil, err
	}
	if err := infra.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func memoryCatalog(ctx context.Context, path string) (*infra.MemoryCatalog, error) {
	catalog := infra.NewMemoryCatalog()
	if path == "" {
		logger.Warning("CATALOG_FILE not set: in-memory catalog is empty")
		return catalog, nil
	}

	file, err := infra.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	n, err := infra.SeedCatalog(ctx, catalog, file)
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	logger.Infof("catalog: %d contests loaded from %s", n, path)
	return catalog, nil
}
