// Package main is the entry point for the escrow API.
// It initializes all dependencies, sets up the HTTP server and the outbox
// dispatcher, and runs them until interrupted.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrow/internal/config"
	"escrow/internal/logger"
	"escrow/internal/repositories"
	"escrow/internal/repositories/cache"
	"escrow/internal/repositories/memory"
	"escrow/internal/routes"
	"escrow/internal/services/notification"
	"escrow/internal/services/payment"
	"escrow/internal/services/review"
	"escrow/internal/services/transaction"
	"escrow/internal/services/wallet"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer closeStore()

	walletCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	publisher, err := notification.NewPublisher(cfg.Events, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create event publisher")
	}
	defer publisher.Close()

	dispatcher := notification.NewDispatcher(store, publisher, notification.DispatcherConfig{
		PollInterval: cfg.Events.PollInterval,
		BatchSize:    cfg.Events.BatchSize,
		MaxAttempts:  cfg.Events.MaxAttempts,
	}, log)

	wallets := wallet.NewService(store, walletCache, &wallet.NoopMetricsCollector{}, log)
	deps := routes.Dependencies{
		Store:                store,
		Cache:                walletCache,
		Wallets:              wallets,
		Payments:             payment.NewService(store, wallets, dispatcher, log),
		Transactions:         transaction.NewService(store, wallets, dispatcher, log),
		Reviews:              review.NewService(store, log),
		Notifications:        notification.NewService(store),
		JWTSecret:            cfg.JWTSecret,
		WebhookSigningSecret: cfg.WebhookSigningSecret,
		WebhookRateLimit:     cfg.WebhookRateLimit,
		Log:                  log,
	}

	app := fiber.New(fiber.Config{
		AppName:               "escrow",
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return utils.Error(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))

	routes.SetupRoutes(app, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("http server starting")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	if cfg.StoreDriver == "postgres" {
		g.Go(func() error {
			return notification.Listen(gctx, cfg.Database.DSN(), dispatcher, log)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server exited with error")
		return
	}
	log.Info("server stopped")
}

// openStore selects the store backend and returns its cleanup func.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (repositories.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := repositories.OpenPostgres(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.AutoMigrate(db); err != nil {
		return nil, nil, err
	}

	store := repositories.NewPostgresStore(db)
	if err := store.Ping(ctx); err != nil {
		return nil, nil, err
	}
	log.Info("connected to database")

	return store, func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.WithError(err).Warn("failed to get database instance")
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}, nil
}

// openCache returns the Redis wallet cache, or a no-op cache when Redis is
// not configured or unreachable.
func openCache(ctx context.Context, cfg *config.Config, log *logrus.Logger) (cache.WalletCache, func()) {
	if cfg.Redis.Addr() == "" {
		log.Info("wallet cache disabled")
		return cache.NoopCache{}, func() {}
	}

	svc := cache.NewCacheService(cache.NewRedisClient(cfg.Redis), cfg.Redis.TTL)
	if err := svc.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, wallet cache disabled")
		_ = svc.Close()
		return cache.NoopCache{}, func() {}
	}
	log.WithField("addr", cfg.Redis.Addr()).Info("connected to redis")

	return svc, func() {
		if err := svc.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis connection")
		}
	}
}
