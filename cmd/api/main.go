package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gymsync/internal/cache"
	"gymsync/internal/config"
	"gymsync/internal/database"
	"gymsync/internal/events"
	"gymsync/internal/guard"
	"gymsync/internal/handlers"
	"gymsync/internal/jobs"
	"gymsync/internal/log"
	"gymsync/internal/middleware"
	"gymsync/internal/proxy"
	"gymsync/internal/rbac"
	"gymsync/internal/repository"
	"gymsync/internal/security"
	"gymsync/internal/server"
	"gymsync/internal/service"
	"gymsync/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, "gymsync-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure avatar bucket failed")
	}

	accounts := repository.NewAccountRepository(dbPool, cfg.Postgres.QueryTimeout)
	revocations := cache.NewRevocationStore(redisClient)
	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream)

	codec := security.NewCodec(cfg.Security.TokenSecret, cfg.Security.TokenTTL, cfg.Security.LegacyMockTokens)
	hasher := security.NewHasher()
	registry := rbac.Default()

	authService := service.NewAuthService(accounts, codec, hasher, revocations, publisher, logger)
	if cfg.Security.BootstrapAdminPassword != "" {
		created, err := authService.BootstrapSuperAdmin(ctx, cfg.Security.BootstrapAdminEmail, cfg.Security.BootstrapAdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("bootstrap super admin failed")
		}
		if !created {
			logger.Debug().Msg("super admin already present")
		}
	}

	upstream, err := proxy.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid upstream base url")
	}

	handlerSet := handlers.NewHandlerSet(logger, handlers.Dependencies{
		Auth:      authService,
		Approvals: service.NewApprovalService(accounts, publisher, logger),
		Profiles:  service.NewProfileService(accounts, objectStore, registry, cfg.Storage.MaxAvatarBytes, logger),
		Proxy:     upstream,
		Guard:     guard.New(codec, registry),
		Registry:  registry,
		Checks: map[string]handlers.HealthCheck{
			"postgres": dbPool.Ping,
			"redis":    cache.HealthCheck(redisClient),
			"storage":  objectStore.Ping,
		},
		Cookies:        middleware.CookieConfig{Secure: cfg.Security.CookieSecure},
		MaxUploadBytes: cfg.Storage.MaxAvatarBytes,
		Environment:    cfg.Environment,
		Development:    cfg.Development(),
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(accounts, publisher, cfg.Worker.DigestSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("digest job still running at shutdown")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
