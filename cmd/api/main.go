package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"steamprofile-rest-api/internal/cache"
	"steamprofile-rest-api/internal/config"
	"steamprofile-rest-api/internal/handler"
	"steamprofile-rest-api/internal/middleware"
	"steamprofile-rest-api/internal/repository"
	"steamprofile-rest-api/internal/resolver"
	"steamprofile-rest-api/internal/router"
	"steamprofile-rest-api/internal/scraper"
	"steamprofile-rest-api/internal/service"
	"steamprofile-rest-api/internal/steamapi"
	"steamprofile-rest-api/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	log, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Steam profile API",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version))

	// Canonical document store
	store, err := repository.NewFSDocumentStore(cfg.Store.DataDir, log)
	if err != nil {
		log.Fatal("Failed to initialize document store", zap.Error(err))
	}

	// Alias index based on config
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	var index repository.AliasIndex
	switch cfg.IndexDB.Type {
	case "postgres", "postgresql":
		index, err = repository.NewPostgresAliasIndex(ctx, cfg.IndexDB.PostgresDSN())
	case "mysql":
		index, err = repository.NewMySQLAliasIndex(ctx, cfg.IndexDB.MySQLDSN())
	default: // sqlite
		index, err = repository.NewSQLiteAliasIndex(ctx, cfg.IndexDB.Path)
	}
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize alias index",
			zap.String("type", cfg.IndexDB.Type), zap.Error(err))
	}
	defer index.Close()
	log.Info("Alias index initialized", zap.String("type", cfg.IndexDB.Type))

	// TTL cache
	var ttlCache cache.Cache
	cacheType := cfg.Cache.Type
	switch cacheType {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err != nil {
			log.Warn("Redis connection failed, falling back to memory cache", zap.Error(err))
			ttlCache = cache.NewMemoryCache()
			cacheType = "memory"
		} else {
			defer redisCache.Close()
			ttlCache = redisCache
		}
	default:
		ttlCache = cache.NewMemoryCache()
		cacheType = "memory"
	}
	log.Info("Cache initialized", zap.String("type", cacheType))

	// Upstream collaborators
	gateway := steamapi.NewClient(steamapi.Config{
		BaseURL: cfg.Steam.APIBaseURL,
		APIKey:  cfg.Steam.APIKey,
		Timeout: cfg.Steam.HTTPTimeout,
	}, steamapi.NewLimiter(cfg.Steam.MinCallInterval), log)

	idResolver := resolver.New(resolver.Config{
		CommunityBaseURL: cfg.Steam.CommunityBaseURL,
		Timeout:          cfg.Steam.HTTPTimeout,
		Retries:          cfg.Steam.ResolveRetries,
	}, log)

	pageScraper := scraper.New(scraper.Config{
		Timeout: cfg.Steam.HTTPTimeout,
		Retries: cfg.Steam.ResolveRetries,
	}, log)

	// Orchestrator
	profiles := service.NewProfileService(service.ProfileDeps{
		Store:    store,
		Index:    index,
		Cache:    ttlCache,
		Resolver: idResolver,
		Vanity:   idResolver,
		Scraper:  pageScraper,
		Stats:    gateway,
	}, service.ProfileConfig{
		CommunityBaseURL: cfg.Steam.CommunityBaseURL,
		SnapshotTTL:      cfg.Steam.SnapshotTTL,
		StatusCooldown:   cfg.Steam.StatusCooldown,
	}, log)

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	if err := profiles.EnsureIndex(ctx); err != nil {
		log.Warn("Initial alias index sync failed", zap.Error(err))
	}
	cancel()

	indexSync := service.NewIndexSyncScheduler(profiles, service.IndexSyncConfig{
		Interval: cfg.IndexDB.SyncInterval,
	}, log)
	indexSync.Start()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Name, cfg.App.Version,
		handler.ReadyCheck{Name: "store", Check: func(ctx context.Context) error {
			_, err := store.List(ctx)
			return err
		}},
		handler.ReadyCheck{Name: "alias_index", Check: func(ctx context.Context) error {
			_, err := index.Count(ctx)
			return err
		}},
	)
	profileHandler := handler.NewProfileHandler(profiles, log)
	adminHandler := handler.NewAdminHandler(handler.AdminConfig{
		Store:     store,
		Index:     index,
		Gateway:   gateway,
		Sync:      indexSync,
		CacheType: cacheType,
		IndexType: cfg.IndexDB.Type,
		Logger:    log,
	})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		ProfileHandler: profileHandler,
		AdminHandler:   adminHandler,
		RateLimiter: middleware.NewClientRateLimiter(middleware.RateLimitConfig{
			Window: cfg.RateLimit.Window,
			Burst:  cfg.RateLimit.Burst,
		}),
		AdminKey:   cfg.App.LoginKey,
		TrustProxy: cfg.RateLimit.TrustProxy,
		Logger:     log,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	indexSync.Stop()
	log.Info("Server stopped")
}
