package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-generator/internal/adapters/flags"
	"github.com/jsamuelsen/quote-generator/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

var loadConfigFn = config.LoadFrom

// runtime is the object graph one command runs against. It is built per
// invocation and torn down before the process exits.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *storage.SQLiteStore
	remote *acl.RemoteQuoteClient
	flags  *flags.Static
	quotes *app.QuoteService
}

// withQuotes loads config, opens the database and hydrates a QuoteService,
// then runs fn under the command deadline.
func withQuotes(cmdCtx context.Context, deps commandDeps, fn func(context.Context, *runtime) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx, deps.globals.timeout())
	defer cancel()

	rt, err := openRuntime(ctx, deps)
	if err != nil {
		return mapCommandError(err)
	}

	err = fn(ctx, rt)

	return mapCommandError(errors.Join(err, rt.close()))
}

func openRuntime(ctx context.Context, deps commandDeps) (*runtime, error) {
	cfg, err := loadConfigFn(deps.globals.ConfigDir, deps.globals.Profile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if p := strings.TrimSpace(deps.globals.DBPath); p != "" {
		cfg.Storage.Path = p
	}

	if u := strings.TrimSpace(deps.globals.RemoteURL); u != "" {
		cfg.Services.Remote.BaseURL = u
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageErrorf("invalid config: %v", err)
	}

	level := "warn"
	if deps.globals.Verbose {
		level = "debug"
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "pretty",
		Service: "quotectl",
		Version: deps.build.Version,
	}, deps.errOut)

	db, err := storage.OpenSQLite(storage.SQLiteConfig{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	featureFlags, err := flags.NewStatic(cfg.Features, logger)
	if err != nil {
		_ = db.Close()
		return nil, usageErrorf("invalid features: %v", err)
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Remote.BaseURL,
		ServiceName: cfg.Services.Remote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   "quotectl/" + deps.build.Version,
		Logger:      logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create HTTP client: %w", err)
	}

	remote := acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{
		Client:       httpClient,
		BatchSize:    cfg.Services.Remote.BatchSize,
		UseRemoteIDs: cfg.Services.Remote.UseRemoteIDs,
		Logger:       logger,
	})

	// Session state lives in SQLite too so "last" survives between runs.
	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Repository: persistence.NewQuoteRepository(db),
		Codec:      persistence.JSONCodec{},
		Session:    persistence.NewSessionStore(db, db),
		Remote:     remote,
		Flags:      featureFlags,
		Logger:     logger,
	})

	// An unreadable payload falls back to the defaults and is logged by Load.
	_, _ = quotes.Load(ctx)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		remote: remote,
		flags:  featureFlags,
		quotes: quotes,
	}, nil
}

// close waits for background pushes, then releases the database.
func (rt *runtime) close() error {
	rt.quotes.Wait()

	return rt.db.Close()
}
