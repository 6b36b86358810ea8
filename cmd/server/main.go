// Package main is the entry point of the disbursement server. It runs the
// scheduled disbursement runs and serves the ops API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disburse/internal/config"
	"disburse/internal/handlers"
	"disburse/internal/logger"
	"disburse/internal/middleware"
	"disburse/internal/repositories"
	"disburse/internal/repositories/cache"
	"disburse/internal/routes"
	"disburse/internal/scheduler"
	"disburse/internal/services/disbursement"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
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
	cacheSvc := cache.NewCacheService(cache.NewRedisClient(cfg), cfg.RunReportTTL)
	defer func() {
		if err := cacheSvc.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis connection")
		}
	}()
	if err := cacheSvc.HealthCheck(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	go logPoolStats(ctx, db, cacheSvc, log)

	merchantRepo := repositories.NewMerchantRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	disbursementRepo := repositories.NewDisbursementRepository(db)

	svc := disbursement.NewService(merchantRepo, orderRepo, disbursementRepo, disbursement.Options{
		Workers:              cfg.Workers,
		ReferenceMaxAttempts: cfg.ReferenceMaxAttempts,
		Logger:               log,
	})
	sched := scheduler.New(svc, cacheSvc, cacheSvc, cfg.RunInterval, cfg.LockTTL, log)
	sched.Start(ctx)
	defer sched.Stop()

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.IsProduction()})
	app.Use(recover.New())
	app.Use(middleware.Logger(log))
	app.Use("/api/runs", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Deps{
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		Health: map[string]handlers.Check{
			"database": func(ctx context.Context) error { return repositories.HealthCheck(ctx, db) },
			"redis":    cacheSvc.HealthCheck,
		},
		Runs:          sched,
		Reports:       cacheSvc,
		Merchants:     merchantRepo,
		Disbursements: disbursementRepo,
		Orders:        orderRepo,
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("ops API listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("http server stopped")
	}
}

func logPoolStats(ctx context.Context, db *gorm.DB, cacheSvc *cache.CacheService, log zerolog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			log.Debug().
				Int("open", stats.OpenConnections).
				Int("idle", stats.Idle).
				Int("in_use", stats.InUse).
				Int64("wait_count", stats.WaitCount).
				Dur("wait_duration", stats.WaitDuration).
				Msg("db pool stats")

			if rs := cacheSvc.GetStats(); rs != nil {
				log.Debug().
					Uint32("hits", rs.Hits).
					Uint32("misses", rs.Misses).
					Uint32("timeouts", rs.Timeouts).
					Uint32("total_conns", rs.TotalConns).
					Uint32("idle_conns", rs.IdleConns).
					Msg("redis pool stats")
			}
		}
	}
}
