package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/restaurant-console/internal/api/http"
	"github.com/spec-kit/restaurant-console/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/config"
	"github.com/spec-kit/restaurant-console/internal/events"
	"github.com/spec-kit/restaurant-console/internal/identity"
	"github.com/spec-kit/restaurant-console/internal/observability"
	"github.com/spec-kit/restaurant-console/internal/persistence"
	"github.com/spec-kit/restaurant-console/internal/repository"
	"github.com/spec-kit/restaurant-console/internal/service"
	"github.com/spec-kit/restaurant-console/internal/worker"
)

const identityCachePrefix = "restaurant-console:identity:"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(promRegistry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Directory.Backend == config.DirectoryPostgres && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var fb *persistence.Firebase
	if cfg.NeedsFirebase() {
		fb, err = persistence.NewFirebase(ctx, cfg.Firebase, persistence.FirebaseFeatures{
			Auth:      cfg.Auth.Provider == config.AuthProviderFirebase,
			Firestore: cfg.Directory.Backend == config.DirectoryFirestore,
			Messaging: cfg.Notification.PushEnabled,
		}, logger)
		if err != nil {
			logger.Fatal("failed to initialize firebase", zap.Error(err))
		}
		defer fb.Close()
	}

	staffRepo, ownerRepo, err := buildDirectory(cfg, pg, fb)
	if err != nil {
		logger.Fatal("failed to build directory", zap.Error(err))
	}

	var resolver identity.IdentityResolver = identity.NewResolver(identity.ResolverDependencies{
		StaffRepo: staffRepo,
		OwnerRepo: ownerRepo,
		Logger:    logger,
		Metrics:   metrics,
		Timeout:   cfg.Identity.LookupTimeout(),
	})
	var cache service.Invalidator
	if ttl := cfg.Identity.CacheTTL(); ttl > 0 {
		cached := identity.NewCachedResolver(resolver, identity.NewRedisCache(redis.Client, identityCachePrefix, ttl), logger)
		resolver = cached
		cache = cached
	}

	dispatcher := events.NewInMemoryDispatcher()
	registry := identity.NewRegistry(resolver, dispatcher, logger, identity.WithMaxAge(cfg.Identity.SessionMaxAge()))

	var push service.PushSender
	if fb != nil && fb.Messaging != nil {
		push = service.NewFCMPushSender(fb.Messaging)
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification, push))

	instanceID := uuid.NewString()
	bridge := events.NewRedisBridge(redis.Client, cfg.Events.RedisChannel, instanceID, logger, registry.SignOutRemote)
	bridgeDone := worker.StartSignOutBridge(ctx, bridge, dispatcher, logger)

	provider, local, err := buildProvider(cfg, fb)
	if err != nil {
		logger.Fatal("failed to build auth provider", zap.Error(err))
	}

	cookies := auth.CookieConfig{
		Name:   cfg.Auth.SessionCookieName,
		TTL:    cfg.Auth.SessionTTL(),
		Secure: cfg.Auth.CookieSecure,
	}
	authService := service.NewAuthService(service.AuthDependencies{
		Provider:   provider,
		Local:      local,
		Registry:   registry,
		Cache:      cache,
		SessionTTL: cookies.TTL,
		Logger:     logger,
	})

	healthDeps := map[string]handlers.Pinger{"redis": redis}
	if pg.Enabled() {
		healthDeps["postgres"] = pg
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Session:           handlers.NewSessionHandler(authService, cookies),
		Pages:             handlers.NewPagesHandler(ownerRepo),
		GuardEvents:       handlers.NewGuardEventsHandler(ctx, 0, logger),
		SessionMiddleware: auth.NewSessionMiddleware(provider, registry, cookies, logger),
		Metrics:           metrics,
		Gatherer:          promRegistry,
		LocalSignIn:       local != nil,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	logger.Info("restaurant console started",
		zap.String("instance", instanceID),
		zap.String("auth_provider", cfg.Auth.Provider),
		zap.String("directory", cfg.Directory.Backend))

	waitForShutdown(logger)

	cancel()
	_ = app.ShutdownWithTimeout(10 * time.Second)
	select {
	case <-bridgeDone:
	case <-time.After(5 * time.Second):
		logger.Warn("sign-out bridge did not stop in time")
	}
}

func buildDirectory(cfg *config.Config, pg *persistence.Postgres, fb *persistence.Firebase) (repository.StaffRepository, repository.OwnerRepository, error) {
	switch cfg.Directory.Backend {
	case config.DirectoryFirestore:
		client := fb.Firestore
		return repository.NewFirestoreStaffRepository(client, cfg.Directory.StaffCollection),
			repository.NewFirestoreOwnerRepository(client, cfg.Directory.OwnerCollection),
			nil
	case config.DirectoryPostgres:
		pool := pg.PoolHandle()
		return repository.NewStaffRepository(pool), repository.NewOwnerRepository(pool), nil
	case config.DirectoryMemory:
		dir, err := repository.LoadMemoryDirectory(cfg.Directory.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		return dir.Staff(), dir.Owners(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported directory backend %q", cfg.Directory.Backend)
	}
}

func buildProvider(cfg *config.Config, fb *persistence.Firebase) (auth.Provider, *auth.LocalProvider, error) {
	if cfg.Auth.Provider == config.AuthProviderFirebase {
		return auth.NewFirebaseProvider(fb.Auth), nil, nil
	}
	accounts, err := auth.ParseLocalAccounts(cfg.Auth.LocalAccounts)
	if err != nil {
		return nil, nil, err
	}
	local := auth.NewLocalProvider(cfg.Auth.LocalSecret, cfg.Auth.LocalTokenTTLMinutes, accounts)
	return local, local, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
