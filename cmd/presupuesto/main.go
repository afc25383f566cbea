package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/config"
	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/handler"
	"github.com/boddenberg/presupuesto-bff/internal/infra/cache"
	"github.com/boddenberg/presupuesto-bff/internal/infra/client"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/infra/outbox"
	"github.com/boddenberg/presupuesto-bff/internal/infra/resilience"
	"github.com/boddenberg/presupuesto-bff/internal/port"
	"github.com/boddenberg/presupuesto-bff/internal/render"
	"github.com/boddenberg/presupuesto-bff/internal/service"
	"github.com/boddenberg/presupuesto-bff/internal/session"
	"github.com/boddenberg/presupuesto-bff/web"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Int("list_limit", cfg.ListLimit),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.String("outbox_path", cfg.OutboxPath),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "presupuesto-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	memCache := cache.New[domain.CategorySet](cfg.CacheTTL)
	defer memCache.Close()

	var categoryCache port.Cache[domain.CategorySet] = memCache
	if len(cfg.MemcacheHosts) > 0 {
		mc, err := cache.NewMemcache[domain.CategorySet](cfg.MemcacheHosts, "presupuesto:", cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("memcached unavailable, using in-memory cache", zap.Error(err))
		} else {
			categoryCache = mc
		}
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("finance-api", logger)

	// --- Finance API client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	financeClient := client.New(httpClient, cfg.APIBaseURL, cb, resilienceCfg, logger)

	// --- Outbox ---
	replayCtx, stopReplay := context.WithCancel(context.Background())
	defer stopReplay()

	var pending port.Outbox
	var readiness handler.Pinger
	if cfg.OutboxPath != "" {
		store, err := outbox.Open(cfg.OutboxPath, logger)
		if err != nil {
			logger.Fatal("failed to open outbox", zap.Error(err))
		}
		defer store.Close()
		pending, readiness = store, store

		replayer := outbox.NewReplayer(store, financeClient, outbox.ReplayerConfig{
			Interval:       cfg.OutboxReplayInterval,
			BatchSize:      cfg.OutboxBatchSize,
			MaxConcurrency: cfg.MaxConcurrency,
			InitialBackoff: time.Second,
		}, metrics, logger)
		go replayer.Run(replayCtx)
		logger.Info("outbox enabled", zap.String("path", cfg.OutboxPath))
	} else {
		logger.Warn("outbox disabled, unacknowledged writes will not be retried")
	}

	// --- Services ---
	categories := service.NewCategoryProvider(financeClient, categoryCache, metrics, logger)
	loader := service.NewLoader(financeClient, cfg.ListLimit, time.Now, metrics, logger)

	// --- Pages ---
	pages, err := render.NewPages(web.TemplatesFS)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		logger.Fatal("failed to open static assets", zap.Error(err))
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Auth:      service.NewAuthService(financeClient, logger),
		Dashboard: service.NewDashboard(categories, loader, pending, logger),
		Submitter: service.NewSubmitter(financeClient, pending, metrics, logger),
		Tracker:   service.NewLoadTracker(),
		Sessions:  session.New(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, logger),
		Pages:     pages,
		Metrics:   metrics,
		Static:    static,
		Breaker:   cb,
		Outbox:    readiness,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	stopReplay()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
