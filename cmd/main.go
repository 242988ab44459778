package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/creatorscore/engine/internal/adapters/boost"
	"github.com/creatorscore/engine/internal/adapters/cache"
	"github.com/creatorscore/engine/internal/adapters/http/api"
	"github.com/creatorscore/engine/internal/adapters/repository"
	"github.com/creatorscore/engine/internal/adapters/talent"
	app "github.com/creatorscore/engine/internal/app"
	"github.com/creatorscore/engine/internal/config"
	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/pkg/logger"
	"github.com/creatorscore/engine/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Score source over the profile search API, with a TTL cache so a
	// recompute between passes never refetches pages.
	scoreSource := talent.NewClient(cfg.TalentBaseURL, cfg.TalentAPIKey,
		talent.WithPageSize(cfg.TalentPageSize),
		talent.WithRequestsPerSecond(cfg.TalentRPS),
		talent.WithCache(cache.NewTTLCache(
			cache.WithName("scores"),
			cache.WithSize(cfg.CacheSize),
			cache.WithTTL(time.Duration(cfg.ScoreCacheTTLSec)*time.Second),
		)),
	)

	// Boost source over the configured token holder endpoints.
	var boostSource app.BoostSource
	if len(cfg.BoostHolderURLs) > 0 {
		queries := make([]boost.Query, 0, len(cfg.BoostHolderURLs))
		for _, u := range cfg.BoostHolderURLs {
			queries = append(queries, boost.NewHTTPQuery(u, cfg.TokenThreshold, nil))
		}
		boostSource = boost.NewSource(queries,
			boost.WithCache(cache.NewTTLCache(
				cache.WithName("boost"),
				cache.WithSize(cfg.CacheSize),
				cache.WithTTL(time.Duration(cfg.BoostCacheTTLSec)*time.Second),
			)),
		)
	}

	// Durable decision and snapshot storage when a DSN is configured,
	// in-memory otherwise.
	var (
		decisions repository.DecisionStore
		snapshots repository.SnapshotStore
	)
	if cfg.PostgresDSN != "" {
		pg, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			os.Stderr.WriteString("failed to connect postgres: " + err.Error() + "\n")
			return
		}
		defer func() { _ = pg.Close() }()
		if err := pg.Migrate(ctx); err != nil {
			os.Stderr.WriteString("failed to migrate postgres: " + err.Error() + "\n")
			return
		}
		decisions, snapshots = pg, pg
	} else {
		mem := repository.NewMemoryStore()
		decisions, snapshots = mem, mem
	}

	// Create and start the service with configuration options
	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithPool(model.Pool{
			TotalAmount:          cfg.PoolTotal,
			BoostMultiplier:      cfg.BoostMultiplier,
			TokenHolderThreshold: cfg.TokenThreshold,
			WindowSize:           cfg.WindowSize,
		}),
		app.WithRefreshInterval(time.Duration(cfg.RefreshIntervalSec) * time.Second),
		app.WithFetchExcess(cfg.FetchExcess),
		app.WithScoreSource(scoreSource),
		app.WithDecisionStore(decisions),
		app.WithSnapshotStore(snapshots),
	}
	if boostSource != nil {
		opts = append(opts, app.WithBoostSource(boostSource))
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
