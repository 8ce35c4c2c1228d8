package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/denisCazz/visitreport-service/internal/api/http"
	"github.com/denisCazz/visitreport-service/internal/api/http/handlers"
	"github.com/denisCazz/visitreport-service/internal/auth"
	"github.com/denisCazz/visitreport-service/internal/config"
	"github.com/denisCazz/visitreport-service/internal/events"
	"github.com/denisCazz/visitreport-service/internal/observability"
	"github.com/denisCazz/visitreport-service/internal/persistence"
	"github.com/denisCazz/visitreport-service/internal/ratelimit"
	"github.com/denisCazz/visitreport-service/internal/repository"
	"github.com/denisCazz/visitreport-service/internal/service"
	"github.com/denisCazz/visitreport-service/internal/tenant"
	"github.com/denisCazz/visitreport-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.App.Env == "production" && cfg.Auth.UsingDefaultSecret() {
		logger.Fatal("AUTH_JWT_SECRET must be overridden in production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	var limiterStore ratelimit.Store
	switch cfg.RateLimit.Store {
	case "redis":
		limiterStore = ratelimit.NewRedisStore(redis.Client)
		logger.Info("rate limiter using redis store")
	default:
		memStore := ratelimit.NewMemoryStore()
		memStore.StartSweep(cfg.RateLimit.SweepPeriod)
		defer memStore.Stop()
		limiterStore = memStore
		logger.Info("rate limiter using in-memory store; counts are per instance")
	}
	limiter := ratelimit.NewLimiter(limiterStore)

	pool := pg.PoolHandle()
	technicianRepo := repository.NewTechnicianRepository(pool)
	visitRepo := repository.NewVisitReportRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(dispatcher, logger)
	worker.StartAuditWorker(auditService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	cookies := auth.NewCookieWriter(cfg.Auth.CookieSecure, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	tenants := tenant.NewResolver(cfg.Tenant.DefaultOrg)

	sessionService := service.NewSessionService(service.SessionDependencies{
		Technicians: technicianRepo,
		Tokens:      tokens,
		Limiter:     limiter,
		LoginPolicy: ratelimit.Policy(cfg.RateLimit.Login),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	visitService := service.NewVisitService(visitRepo, limiter, service.VisitPolicies{
		Create: ratelimit.Policy(cfg.RateLimit.VisitCreate),
		Read:   ratelimit.Policy(cfg.RateLimit.Read),
		Search: ratelimit.Policy(cfg.RateLimit.Search),
	}, dispatcher, metrics)

	gate := auth.NewGate(tokens, tenants, cookies)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:   handlers.NewAuthHandler(sessionService, cookies),
		Visits: handlers.NewVisitsHandler(visitService),
		Gate:   gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
