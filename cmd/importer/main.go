package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/logistic/internal/archive"
	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/core"
	"github.com/JonMunkholm/logistic/internal/core/kinds"
	"github.com/JonMunkholm/logistic/internal/logging"
	"github.com/JonMunkholm/logistic/internal/store"
	"github.com/JonMunkholm/logistic/internal/transport"
	"github.com/JonMunkholm/logistic/internal/web"
)

func main() {
	once := flag.Bool("once", false, "run every selected kind once and exit, ignoring IMPORT_INTERVAL")
	flag.Parse()

	// Overload: values in .env win over the inherited environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Bootstrap(ctx, pool); err != nil {
		logger.Error("failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	if cfg.Import.KindsFile != "" {
		codes, err := kinds.RegisterFile(cfg.Import.KindsFile)
		if err != nil {
			logger.Error("failed to load kinds file", "path", cfg.Import.KindsFile, "error", err)
			os.Exit(1)
		}
		logger.Info("kinds file loaded", "path", cfg.Import.KindsFile, "kinds", codes)
	}

	selected, err := core.Select(cfg.Import.Kinds)
	if err != nil {
		logger.Error("invalid IMPORT_KINDS", "error", err)
		os.Exit(1)
	}
	logger.Info("import kinds selected", "count", len(selected), "registered", core.KindCount())

	opts := core.Options{
		Dialer:          transport.DefaultDialer(),
		Settings:        config.Chain{config.ScopedFromEnv(os.Environ()), store.NewConfigStore(pool)},
		Importer:        store.NewImporter(pool),
		LogStore:        store.NewLogStore(pool),
		Logger:          logger,
		VarDir:          cfg.Import.VarDir,
		ConnectTimeout:  cfg.Import.ConnectTimeout,
		DownloadTimeout: cfg.Import.DownloadTimeout,
	}
	if cfg.Archive.Enabled {
		archiver, err := archive.New(cfg.Archive)
		if err != nil {
			logger.Error("failed to create archiver", "error", err)
			os.Exit(1)
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			logger.Error("failed to prepare archive bucket", "bucket", cfg.Archive.Bucket, "error", err)
			os.Exit(1)
		}
		opts.Archiver = archiver
	}

	pipeline, err := core.NewPipeline(opts)
	if err != nil {
		logger.Error("failed to create pipeline", "error", err)
		os.Exit(1)
	}
	scheduler := core.NewScheduler(pipeline, selected, cfg.Import.Interval, logger)

	if *once || cfg.Import.Interval <= 0 {
		if err := scheduler.RunOnce(ctx); err != nil {
			os.Exit(1)
		}
		return
	}

	server := web.NewServer(cfg.Server, store.NewLogStore(pool), pool, logger)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	scheduler.Start(ctx)

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// openPool connects and pings the database with the configured pool limits.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
