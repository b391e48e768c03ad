// Command buildflow is the design editing service: a chi HTTP API and an
// MCP tool surface over the markup mutation engine, with SQLite persistence,
// live Chrome preview, exports, and web import.
//
// Usage:
//
//	buildflow                         # defaults, env overrides
//	buildflow -config buildflow.yaml  # explicit configuration
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/buildflow/buildflow/auth"
	"github.com/buildflow/buildflow/browser"
	"github.com/buildflow/buildflow/dbopen"
	"github.com/buildflow/buildflow/designs"
	"github.com/buildflow/buildflow/editor"
	"github.com/buildflow/buildflow/export"
	"github.com/buildflow/buildflow/observability"
	"github.com/buildflow/buildflow/shield"
	"github.com/buildflow/buildflow/trace"
	"github.com/buildflow/buildflow/watch"
	"github.com/buildflow/buildflow/webimport"
)

func main() {
	configPath := flag.String("config", "", "path to buildflow.yaml config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	// Optional .env for local development; absence is normal.
	_ = godotenv.Load()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath); err != nil {
		logger.Error("buildflow: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string) error {
	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = LoadConfigFile(configPath)
		if err != nil {
			return err
		}
	}

	// Trace DB — raw "sqlite" driver, never "sqlite-trace", to avoid
	// recursion.
	if cfg.Trace.Enabled {
		traceDB, err := dbopen.Open(cfg.DB.TracePath, dbopen.WithMkdirAll())
		if err != nil {
			return fmt.Errorf("trace db: %w", err)
		}
		defer traceDB.Close()
		traceStore := trace.NewStore(traceDB)
		if err := traceStore.Init(); err != nil {
			return fmt.Errorf("trace init: %w", err)
		}
		trace.SetStore(traceStore)
		defer traceStore.Close()
	}

	// Designs DB carries the design documents, API keys, and observability
	// tables.
	dbOpts := []dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(designs.Schema),
		dbopen.WithSchema(auth.Schema),
		dbopen.WithSchema(shield.Schema),
	}
	if cfg.Trace.Enabled {
		dbOpts = append(dbOpts, dbopen.WithTrace())
	}
	db, err := dbopen.Open(cfg.DB.DesignsPath, dbOpts...)
	if err != nil {
		return fmt.Errorf("designs db: %w", err)
	}
	defer db.Close()
	if err := observability.Init(db); err != nil {
		return fmt.Errorf("observability init: %w", err)
	}

	events := observability.NewEventLogger(db)
	metrics := observability.NewMetricsManager(db, 256, 30*time.Second)
	defer metrics.Close()

	go retentionLoop(ctx, db, cfg.Retention, logger)

	// Browser is optional: without it the service still edits and exports
	// HTML/Markdown, but preview, PDF, and image endpoints return 503.
	var mgr *browser.Manager
	if cfg.Browser.Enabled {
		mgr = browser.NewManager(browser.Config{
			RemoteURL:       cfg.Browser.Remote,
			MemoryLimit:     cfg.Browser.MemoryLimit,
			RecycleInterval: cfg.Browser.RecycleInterval,
			Logger:          logger,
		})
		if _, err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("browser: %w", err)
		}
		defer mgr.Close()
	}

	store := designs.NewStore(db)
	svc := editor.NewService(editor.ServiceConfig{
		Store:  store,
		Events: events,
		Logger: logger,
	})
	exporter := export.New(logger)
	importer := webimport.New(webimport.Config{Manager: mgr, Logger: logger})
	keys := auth.NewKeys(db)

	if !cfg.Auth.Disabled {
		if err := bootstrapKey(ctx, db, keys, logger); err != nil {
			return err
		}
	}

	limiter := shield.NewRateLimiter(db, "/health")
	limiter.StartReloader(ctx.Done())

	mcpSrv := mcp.NewServer(&mcp.Implementation{
		Name:    "buildflow",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(mcpSrv, exporter)

	srv := newServer(serverConfig{
		cfg:      cfg,
		store:    store,
		editor:   svc,
		exporter: exporter,
		importer: importer,
		keys:     keys,
		limiter:  limiter,
		browser:  mgr,
		metrics:  metrics,
		logger:   logger,
	})

	// External writers (bfrender, direct SQL) invalidate cached sessions;
	// the watcher re-renders open previews when the DB changes underneath.
	watcher := watch.New(db, watch.Options{
		Interval: time.Second,
		Debounce: 500 * time.Millisecond,
		Detector: watch.MaxColumnDetector("designs", "updated_at"),
		Logger:   logger,
	})
	go watcher.OnChange(ctx, func() error {
		srv.refreshPreviews(ctx)
		return nil
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.router(mcpSrv),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("buildflow: server starting", "addr", cfg.Server.Addr,
			"browser", cfg.Browser.Enabled, "auth", !cfg.Auth.Disabled)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("buildflow: shutting down")
	srv.closePreviews()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("buildflow: shutdown", "error", err)
	}
	logger.Info("buildflow: stopped")
	return nil
}

// bootstrapKey creates an initial API key when none exist and logs it once.
// There is no other way to obtain a first credential.
func bootstrapKey(ctx context.Context, db *sql.DB, keys *auth.Keys, logger *slog.Logger) error {
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_keys`).Scan(&count); err != nil {
		return fmt.Errorf("count api keys: %w", err)
	}
	if count > 0 {
		return nil
	}
	plain, err := keys.Create(ctx, "bootstrap")
	if err != nil {
		return fmt.Errorf("bootstrap key: %w", err)
	}
	logger.Info("buildflow: bootstrap API key created, store it now", "key", plain)
	return nil
}

func retentionLoop(ctx context.Context, db *sql.DB, cfg RetentionConfig, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := observability.Cleanup(ctx, db, observability.RetentionConfig{
				EventLogsDays: cfg.EventLogsDays,
				MetricsDays:   cfg.MetricsDays,
			}); err != nil {
				logger.Warn("buildflow: retention cleanup", "error", err)
			}
		}
	}
}
