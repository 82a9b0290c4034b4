// Package main is the entry point for the quote service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-generator/internal/adapters/flags"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/notify"
	"github.com/jsamuelsen/quote-generator/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/adapters/watch"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	healthCheckTimeout = 2 * time.Second
	notificationFeed   = 32
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Profile and configuration (fail fast)
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 3. Telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	metrics, err := telemetry.NewSyncMetrics(nil)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	// 4. Health registry
	healthRegistry := ports.NewHealthRegistry().WithCheckTimeout(healthCheckTimeout)

	// 5. Storage
	db, err := storage.OpenSQLite(storage.SQLiteConfig{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("storage close error", slog.Any("error", closeErr))
		}
	}()

	if err := healthRegistry.Register(db); err != nil {
		return fmt.Errorf("registering storage health check: %w", err)
	}

	sessionKV := storage.NewMemoryStore(cfg.Session.TTL)
	janitor := storage.NewJanitor(0, logger, map[string]storage.SweepFunc{
		"session": storage.SweepMemory(sessionKV),
		"sqlite":  db.PurgeExpired,
	})
	janitor.Start(ctx)
	defer janitor.Stop()

	// 6. Repositories
	repo := persistence.NewQuoteRepository(db)
	session := persistence.NewSessionStore(sessionKV, db)

	// 7. Remote feed behind the anti-corruption layer
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Remote.BaseURL,
		ServiceName: cfg.Services.Remote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + Version,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	remote := acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{
		Client:       httpClient,
		BatchSize:    cfg.Services.Remote.BatchSize,
		UseRemoteIDs: cfg.Services.Remote.UseRemoteIDs,
		Logger:       logger,
	})

	if err := healthRegistry.Register(remote); err != nil {
		return fmt.Errorf("registering remote health check: %w", err)
	}

	// 8. Feature flags and notifications
	featureFlags, err := flags.NewStatic(cfg.Features, logger)
	if err != nil {
		return fmt.Errorf("loading feature flags: %w", err)
	}

	feed := notify.NewFeed(notificationFeed)
	notifier := notify.Multi{feed, notify.NewLog(logger)}

	// 9. Application services
	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Repository: repo,
		Codec:      persistence.JSONCodec{},
		Session:    session,
		Remote:     remote,
		Flags:      featureFlags,
		Metrics:    metrics,
		Logger:     logger,
	})

	n, err := quoteService.Load(ctx)
	if err != nil {
		logger.Warn("stored quotes unreadable, using defaults", slog.Any("error", err))
	}

	logger.Info("quotes loaded", slog.Int("count", n))

	syncService := app.NewSyncService(app.SyncConfig{
		Quotes:               quoteService,
		Remote:               remote,
		Notifier:             notifier,
		Flags:                featureFlags,
		Metrics:              metrics,
		Logger:               logger,
		Interval:             cfg.Sync.Interval,
		Timeout:              cfg.Sync.Timeout,
		NotificationDuration: cfg.Sync.NotificationDuration,
	})

	if cfg.Sync.Enabled {
		syncService.Start(ctx, cfg.Sync.RunOnStart)
	}

	// 10. Import inbox
	var watcher *watch.ImportWatcher

	if cfg.Import.Enabled {
		watcher, err = watch.NewImportWatcher(watch.Config{
			Dir:         cfg.Import.WatchDir,
			Importer:    quoteService,
			Debounce:    cfg.Import.Debounce,
			MaxFileSize: cfg.Server.MaxRequestSize,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("creating import watcher: %w", err)
		}

		if err := watcher.Start(ctx); err != nil {
			watcher.Stop()
			return fmt.Errorf("starting import watcher: %w", err)
		}
	}

	// 11. HTTP server
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	buildInfo.Service = cfg.App.Name

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName:         cfg.App.Name,
		Timeout:             cfg.Server.RequestTimeout,
		Telemetry:           telProvider.Enabled(),
		HealthHandler:       handlers.NewHealthHandler(healthRegistry, buildInfo),
		QuoteHandler:        handlers.NewQuoteHandler(quoteService),
		SyncHandler:         handlers.NewSyncHandler(syncService),
		NotificationHandler: handlers.NewNotificationHandler(feed),
	})

	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	// 12. Wait for a signal, then stop in reverse order
	waitErr := waitForSignal(logger, serverErr)

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownErr := server.Shutdown(shutdownCtx)

	if watcher != nil {
		watcher.Stop()
	}

	syncService.Stop()
	quoteService.Wait()

	logger.Info("shutdown complete")

	return errors.Join(waitErr, shutdownErr)
}

// waitForSignal blocks until SIGINT/SIGTERM or a server error.
func waitForSignal(logger *slog.Logger, serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		return nil
	}
}
