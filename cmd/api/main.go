package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/docs-hub/internal/api/http"
	"github.com/spec-kit/docs-hub/internal/api/http/handlers"
	"github.com/spec-kit/docs-hub/internal/auth"
	"github.com/spec-kit/docs-hub/internal/cache"
	"github.com/spec-kit/docs-hub/internal/config"
	"github.com/spec-kit/docs-hub/internal/events"
	"github.com/spec-kit/docs-hub/internal/observability"
	"github.com/spec-kit/docs-hub/internal/persistence"
	"github.com/spec-kit/docs-hub/internal/repository"
	"github.com/spec-kit/docs-hub/internal/search"
	"github.com/spec-kit/docs-hub/internal/service"
	"github.com/spec-kit/docs-hub/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	readiness := map[string]handlers.Pinger{}
	var closers []func(context.Context)

	postRepo := openPostRepository(ctx, cfg, logger, readiness, &closers)

	var postCache *cache.PostCache
	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	if client := rdb.Handle(); client != nil {
		postCache = cache.NewPostCache(client, cfg.Redis.CacheTTL(), logger)
		readiness["redis"] = rdb
		closers = append(closers, func(context.Context) { rdb.Close() })
	}

	var postIndex search.PostIndex
	es, err := persistence.NewElastic(cfg.Search, logger)
	if err != nil {
		logger.Fatal("failed to configure elasticsearch", zap.Error(err))
	}
	if client := es.Handle(); client != nil {
		if err := search.EnsureIndex(ctx, client, cfg.Search.Index); err != nil {
			logger.Warn("elasticsearch index not ready", zap.Error(err))
		}
		postIndex = search.NewElasticPostIndex(client, cfg.Search.Index, logger)
		readiness["elasticsearch"] = es
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewActivityService(dispatcher, logger).RegisterHandlers()
	worker.StartPostIndexWorker(dispatcher, postCache, postIndex, logger)

	tokens := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL(), auth.WithCookieName(cfg.Auth.CookieName))
	gate := auth.NewGate(tokens, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Credentials:  auth.NewCredentialValidator(cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash),
		Tokens:       tokens,
		Dispatcher:   dispatcher,
		Logger:       logger,
		FailureDelay: cfg.Auth.LoginFailureDelay(),
	})
	postService := service.NewPostService(service.PostDependencies{
		PostRepo:   postRepo,
		Cache:      postCache,
		Index:      postIndex,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if postIndex != nil {
		if n, err := postService.ReindexSearch(ctx); err != nil {
			logger.Warn("search index backfill failed", zap.Error(err))
		} else {
			logger.Info("search index backfilled", zap.Int("posts", n))
		}
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	cookie := handlers.CookieSettings{
		Name:   tokens.CookieName(),
		Secure: cfg.Auth.CookieSecure,
		MaxAge: tokens.TTL(),
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, readiness),
		Auth:            handlers.NewAuthHandler(authService, gate, cookie),
		Posts:           handlers.NewPostsHandler(postService),
		AdminPages:      handlers.NewAdminPagesHandler(gate, cookie, httptransport.LoginPath),
		Gate:            gate,
		CookieName:      tokens.CookieName(),
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		LoginRateWindow: cfg.Auth.LoginRateWindow(),
	})

	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i](closeCtx)
	}
}

func openPostRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger, readiness map[string]handlers.Pinger, closers *[]func(context.Context)) repository.PostRepository {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		readiness["postgres"] = pg
		*closers = append(*closers, func(context.Context) { pg.Close() })
		return repository.NewPostgresPostRepository(pg.Pool)

	case config.StoreDriverMemory:
		logger.Warn("using in-memory post store; data is lost on restart")
		return repository.NewMemoryPostRepository()

	default:
		mdb := persistence.NewMongo(cfg.Mongo, logger, repository.MongoPostIndexes(cfg.Mongo.Collection))
		if err := mdb.Ping(ctx); err != nil {
			logger.Warn("mongodb unavailable at startup; connection will be retried on demand", zap.Error(err))
		}
		readiness["mongodb"] = mdb
		*closers = append(*closers, func(ctx context.Context) {
			if err := mdb.Close(ctx); err != nil {
				logger.Warn("mongodb disconnect", zap.Error(err))
			}
		})
		return repository.NewMongoPostRepository(mdb, cfg.Mongo.Collection)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
