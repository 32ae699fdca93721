package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/internal/adapters/crm"
	"github.com/okian/leadgate/internal/adapters/geoip"
	"github.com/okian/leadgate/internal/adapters/http/api"
	"github.com/okian/leadgate/internal/adapters/http/swagger"
	"github.com/okian/leadgate/internal/adapters/sheets"
	app "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/config"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
	"github.com/okian/leadgate/pkg/retry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
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
			logger.Error(err)
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

	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithRegistrySize(cfg.RegistrySize),
	}
	opts = append(opts, buildAdapters(ctx, cfg, loggerInstance)...)

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API reference under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, api.Config{
		TelegramBotUsername: cfg.Messenger.TelegramBotUsername,
		WhatsAppNumber:      cfg.Messenger.WhatsAppNumber,
		WhatsAppPrefill:     cfg.Messenger.WhatsAppPrefill,
		CORSOrigins:         cfg.CORSOrigins,
	})
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

// buildAdapters constructs the external adapters the configuration
// enables. Anything left unconfigured degrades to a safe default
// inside the service (log writer, noop CRM, random click ids).
func buildAdapters(ctx context.Context, cfg *config.Config, log logger.Logger) []app.Option {
	var opts []app.Option

	if cfg.Sheet.SpreadsheetID != "" {
		loc, err := time.LoadLocation(cfg.Sheet.Timezone)
		if err != nil {
			loc = time.UTC
		}
		writer, err := sheets.NewClient(ctx, cfg.Sheet.SpreadsheetID,
			sheets.WithSheetName(cfg.Sheet.SheetName),
			sheets.WithCredentialsFile(cfg.Sheet.CredentialsFile),
			sheets.WithTotalColumns(cfg.Sheet.TotalColumns),
			sheets.WithLocation(loc),
			sheets.WithRetry(retry.Config{
				MaxAttempts:   cfg.Sheet.RetryAttempts,
				InitialDelay:  time.Duration(cfg.Sheet.RetryBackoffMS) * time.Millisecond,
				BackoffFactor: 2.0,
			}),
		)
		if err != nil {
			log.Error(ctx, "failed to create sheets client, falling back to log writer", logger.Error(err))
		} else {
			opts = append(opts, app.WithWriter(writer))
		}
	}

	if cfg.CRM.WebhookURL != "" {
		opts = append(opts, app.WithNotifier(crm.NewClient(cfg.CRM.WebhookURL,
			crm.WithTimeout(time.Duration(cfg.CRM.TimeoutMS)*time.Millisecond),
			crm.WithRetry(retry.Config{
				MaxAttempts:   cfg.CRM.RetryAttempts,
				InitialDelay:  time.Duration(cfg.CRM.RetryBackoffMS) * time.Millisecond,
				BackoffFactor: 2.0,
			}),
		)))
	}

	if cfg.Redis.Addr != "" {
		allocator, err := counter.NewRedisAllocator(ctx,
			cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Redis.CounterKey, cfg.Redis.CounterStart,
		)
		if err != nil {
			log.Warn(ctx, "redis unavailable, click ids will be random", logger.Error(err))
		} else {
			opts = append(opts, app.WithAllocator(allocator))
		}
	}

	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewMaxMind(cfg.GeoIPDBPath)
		if err != nil {
			log.Warn(ctx, "geoip database unavailable, geo column will be empty", logger.Error(err))
		} else {
			opts = append(opts, app.WithGeoResolver(resolver))
		}
	}

	return opts
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the pipeline gauges as a side effect.
			_ = svc.GetStats()
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
