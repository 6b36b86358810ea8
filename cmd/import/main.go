// Command import loads merchants and orders from semicolon separated CSV
// exports. Merchants are imported first so orders can resolve their
// merchant reference.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"disburse/internal/config"
	"disburse/internal/logger"
	"disburse/internal/repositories"
	"disburse/internal/services/importer"
)

func main() {
	os.Exit(run())
}

func run() int {
	merchantsPath := flag.String("merchants", "", "path to the merchants CSV")
	ordersPath := flag.String("orders", "", "path to the orders CSV")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	if *merchantsPath == "" && *ordersPath == "" {
		flag.Usage()
		return 2
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

	imp := importer.New(
		repositories.NewMerchantRepository(db),
		repositories.NewOrderRepository(db),
		cfg.ImportBatchSize,
		log,
	)

	if *merchantsPath != "" {
		if _, err := imp.ImportMerchantsFile(ctx, *merchantsPath); err != nil {
			log.Error().Err(err).Str("file", *merchantsPath).Msg("merchant import failed")
			return 1
		}
	}
	if *ordersPath != "" {
		if _, err := imp.ImportOrdersFile(ctx, *ordersPath); err != nil {
			log.Error().Err(err).Str("file", *ordersPath).Msg("order import failed")
			return 1
		}
	}
	return 0
}
