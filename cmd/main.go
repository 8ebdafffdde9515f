package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/cupstats/internal/adapters/http/api"
	"github.com/okian/cupstats/internal/adapters/http/site"
	"github.com/okian/cupstats/internal/adapters/http/swagger"
	"github.com/okian/cupstats/internal/adapters/mcpserver"
	app "github.com/okian/cupstats/internal/app"
	"github.com/okian/cupstats/internal/config"
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/pkg/logger"
	"github.com/okian/cupstats/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("invalid log_format: " + err.Error() + "\n")
	}
	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(metricsOptions(cfg)...)

	// A dataset that cannot be read or lacks required columns is fatal.
	ds, err := openDataset(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to load dataset", logger.String("path", cfg.DatasetPath), logger.Error(err))
		return
	}

	svc, err := newService(ctx, cfg, ds, loggerInstance)
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if cfg.RenderCache {
		if err := svc.Warm(ctx, cfg.PrerenderWorkers); err != nil {
			loggerInstance.Warn(ctx, "prerender incomplete", logger.Error(err))
		}
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// openDataset loads and deduplicates the configured results file.
func openDataset(ctx context.Context, cfg *config.Config, log logger.Logger) (*dataset.Dataset, error) {
	start := time.Now()
	ds, err := dataset.Load(ctx, cfg.DatasetPath,
		dataset.WithSheet(cfg.DatasetSheet),
		dataset.WithStrictDedupe(cfg.StrictDedupe),
		dataset.WithLogger(log.Named("dataset")),
	)
	if err != nil {
		metrics.RecordErrorByComponent("dataset", "load")
		return nil, err
	}
	metrics.RecordDatasetLoad(time.Since(start))
	return ds, nil
}

// newService builds and starts the dashboard service from cfg.
func newService(ctx context.Context, cfg *config.Config, ds *dataset.Dataset, log logger.Logger) (*app.Service, error) {
	order, err := aggregate.ParseOrder(cfg.RankingOrder)
	if err != nil {
		return nil, err
	}
	svc := app.New(ds,
		app.WithLogger(log),
		app.WithRankingOrder(order),
		app.WithRankingLimit(cfg.RankingLimit),
		app.WithTopStadiums(cfg.TopStadiums),
		app.WithTopTeams(cfg.TopTeams),
		app.WithPreviewRows(cfg.PreviewRows),
		app.WithRenderCache(cfg.RenderCache),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// newRouter mounts the API, docs, MCP endpoint and the dashboard pages.
func newRouter(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	swagger.Register(ctx, r)

	api.NewServer(svc,
		api.WithLogger(log.Named("api")),
		api.WithChartsTitle(cfg.PageTitle),
	).Register(ctx, r)

	if cfg.MCPEnabled {
		tools := mcpserver.New(svc, mcpserver.WithLogger(log.Named("mcp")))
		r.Handle(cfg.MCPPath, tools.Handler())
		log.Info(ctx, "mcp endpoint enabled", logger.String("path", cfg.MCPPath), logger.Int("tools", len(tools.Tools())))
	}

	site.NewShell(svc,
		site.WithLogger(log.Named("site")),
		site.WithTheme(site.Theme{
			PageTitle:              cfg.PageTitle,
			BackgroundImage:        cfg.BackgroundImage,
			MenuBackground:         cfg.MenuBackground,
			MenuAccent:             cfg.MenuAccent,
			MenuSelectedBackground: cfg.MenuSelectedBackground,
		}),
	).Register(ctx, r)

	return r
}

// metricsOptions maps the metrics settings of cfg onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithRefreshInterval(cfg.MetricsRefreshInterval),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
