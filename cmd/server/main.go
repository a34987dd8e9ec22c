package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nulzo/registry-sync/cmd"
	"github.com/nulzo/registry-sync/internal/cache"
	"github.com/nulzo/registry-sync/internal/config"
	"github.com/nulzo/registry-sync/internal/platform/logger"
	"github.com/nulzo/registry-sync/internal/platform/otel"
	"github.com/nulzo/registry-sync/internal/provider"
	"github.com/nulzo/registry-sync/internal/registry"
	"github.com/nulzo/registry-sync/internal/server"
	"github.com/nulzo/registry-sync/internal/store/sqlite"
	syncer "github.com/nulzo/registry-sync/internal/sync"
	"github.com/nulzo/registry-sync/internal/sync/normalize"
)

func main() {
	cmd.CheckForUpdates()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	zl := logger.Get()

	if cfg.Tracing.Enabled {
		shutdown, err := otel.InitTracer("registry-sync", zl, os.Stdout)
		if err != nil {
			zl.Fatal("tracing init failed", zap.Error(err))
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, zl)
	if err != nil {
		zl.Fatal("storage init failed", zap.Error(err))
	}
	defer repo.Close()

	var snapshots cache.Service
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zl.Fatal("redis init failed", zap.Error(err))
		}
		snapshots = redisCache
		zl.Info("snapshot cache: redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		snapshots = cache.NewMemoryCache()
		zl.Info("snapshot cache: in-memory")
	}

	var pusher *syncer.Pusher
	var registryClient registry.Client
	if cfg.Registry.BaseURL != "" {
		registryClient = registry.New(cfg.Registry.BaseURL, cfg.Registry.APIKey,
			time.Duration(cfg.Sync.PushTimeoutSeconds)*time.Second)
		limiter := rate.NewLimiter(rate.Limit(cfg.Sync.PushRPS), cfg.Sync.PushBurst)
		pusher = syncer.NewPusher(registryClient, snapshots, limiter,
			time.Duration(cfg.Sync.PushTimeoutSeconds)*time.Second, zl)
	} else {
		zl.Warn("no registry endpoint configured, pushes will be skipped")
	}

	keys := normalize.DefaultKeys().Extend(cfg.Sync.ContextKeys, cfg.Sync.EmbeddingKeys)
	factory := provider.NewFactory(time.Duration(cfg.Sync.FetchTimeoutSeconds)*time.Second, zl)
	service := syncer.NewService(repo, factory, pusher, keys, cfg.Sync.Workers,
		time.Duration(cfg.Sync.FetchTimeoutSeconds)*time.Second, zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := syncer.NewScheduler(service, repo,
		time.Duration(cfg.Sync.IntervalSeconds)*time.Second, zl)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := server.New(cfg, zl, repo, service, registryClient)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		zl.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown failed", zap.Error(err))
	}
}
