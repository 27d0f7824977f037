package main

import (
	"contest-gateway/engine/infra"

	"github.com/google/logger"
	"github.com/urfave/cli/v2"
)

func startMigrate(cctx *cli.Context) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	if _, err := openSQL(cfg); err != nil {
		return err
	}
	logger.Infof("migrate: %s schema is up to date", cfg.DBDriver)
	return nil
}

func startSeed(cctx *cli.Context) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	file, err := infra.LoadCatalogFile(cctx.String("file"))
	if err != nil {
		return err
	}
	db, err := openSQL(cfg)
	if err != nil {
		return err
	}

	n, err := infra.SeedCatalog(cctx.Context, infra.NewGormCatalog(db), file)
	if err != nil {
		return err
	}
	logger.Infof("seed: %d contests written to %s", n, cfg.DBDriver)
	return nil
}
