// Command disburse runs a single disbursement pass and exits. It takes the
// same Redis run lock as the server unless -no-lock is given.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disburse/internal/config"
	"disburse/internal/logger"
	"disburse/internal/models"
	"disburse/internal/repositories"
	"disburse/internal/repositories/cache"
	"disburse/internal/scheduler"
	"disburse/internal/services/disbursement"
)

func main() {
	os.Exit(run())
}

func run() int {
	noLock := flag.Bool("no-lock", false, "run without the Redis run lock")
	asOf := flag.String("as-of", "", "treat this date (YYYY-MM-DD) as today, for backfills")
	workers := flag.Int("workers", 0, "merchants processed concurrently (defaults to DISBURSEMENT_WORKERS)")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	opts := disbursement.Options{
		Workers:              cfg.Workers,
		ReferenceMaxAttempts: cfg.ReferenceMaxAttempts,
		Logger:               log,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if *asOf != "" {
		day, err := time.Parse(time.DateOnly, *asOf)
		if err != nil {
			log.Fatal().Err(err).Str("as_of", *asOf).Msg("invalid -as-of date")
		}
		opts.Now = func() time.Time { return day }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn().Err(err).Msg("failed to close database connection")
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	svc := disbursement.NewService(
		repositories.NewMerchantRepository(db),
		repositories.NewOrderRepository(db),
		repositories.NewDisbursementRepository(db),
		opts,
	)

	var report *models.RunReport
	if *noLock {
		report, err = svc.Run(ctx)
	} else {
		cacheSvc := cache.NewCacheService(cache.NewRedisClient(cfg), cfg.RunReportTTL)
		defer cacheSvc.Close()
		report, err = scheduler.New(svc, cacheSvc, cacheSvc, cfg.RunInterval, cfg.LockTTL, log).RunOnce(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("disbursement run failed")
		return 1
	}

	log.Info().
		Str("run_id", report.ID).
		Int("created", report.DisbursementsCreated).
		Int("failed", report.MerchantsFailed).
		Dur("took", report.Duration()).
		Msg("done")
	if report.MerchantsFailed > 0 {
		return 2
	}
	return 0
}
