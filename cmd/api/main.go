package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/clinic-admin/internal/api/http"
	"github.com/spec-kit/clinic-admin/internal/api/http/handlers"
	"github.com/spec-kit/clinic-admin/internal/api/http/views"
	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/config"
	"github.com/spec-kit/clinic-admin/internal/events"
	"github.com/spec-kit/clinic-admin/internal/observability"
	"github.com/spec-kit/clinic-admin/internal/persistence"
	"github.com/spec-kit/clinic-admin/internal/query"
	"github.com/spec-kit/clinic-admin/internal/repository"
	"github.com/spec-kit/clinic-admin/internal/service"
	"github.com/spec-kit/clinic-admin/internal/session"
	"github.com/spec-kit/clinic-admin/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(strings.ReplaceAll(cfg.App.Name, "-", "_"))
	deps := map[string]handlers.Pinger{}

	var (
		credentials repository.CredentialRepository
		purger      repository.CredentialPurger
	)
	switch cfg.Session.CredentialStore {
	case config.CredentialStorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), "", logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repo := repository.NewCredentialRepository(pg.PoolHandle())
		credentials = repo
		purger, _ = repo.(repository.CredentialPurger)
		deps["postgres"] = pg
	case config.CredentialStoreMemory:
		logger.Warn("credentials are kept in memory and lost on restart")
		credentials = repository.NewMemoryCredentialRepository()
	default:
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		credentials = repository.NewRedisCredentialRepository(redis.Client, redis.KeyPrefix, cfg.Session.CredentialTTL())
		deps["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	client := apiclient.New(cfg.API, logger, metrics)
	registry := service.NewRegistry(query.NewCache(cfg.Cache.StaleAfter(), metrics), logger)
	sessions := session.NewManager(session.ManagerConfig{
		Client:      client,
		Credentials: credentials,
		Events:      dispatcher,
		Logger:      logger,
		Metrics:     metrics,
		IdleTTL:     cfg.Session.IdleTTL(),
		BcryptCost:  cfg.Session.BcryptCost,
	})

	sweeper := worker.NewSessionWorker(sessions, purger, cfg.Session.SweepInterval(), cfg.Session.CredentialTTL(), logger)
	sweeperDone := sweeper.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 views.NewEngine(cfg.App.Env == "development"),
		DisableStartupMessage: cfg.App.Env != "development",
		BodyLimit:             12 << 20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		AuthAPI:      handlers.NewAuthHandler(logger),
		AuthPages:    handlers.NewAuthPagesHandler(logger),
		Pages:        handlers.NewPagesHandler(registry, logger),
		Appointments: handlers.NewAppointmentsHandler(registry),
		Directory:    handlers.NewDirectoryHandler(registry),
		Commerce:     handlers.NewCommerceHandler(registry),
		Chat:         handlers.NewChatHandler(registry),
		Dashboard:    handlers.NewDashboardHandler(registry),
		Sessions:     sessions,
		Session:      cfg.Session,
		Limiter:      httptransport.NewLoginLimiter(cfg.RateLimit),
		Metrics:      metrics,
		Logger:       logger,
	})

	go func() {
		logger.Info("dashboard listening", zap.String("addr", cfg.App.Addr()), zap.String("api", cfg.API.BaseURL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-sweeperDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
