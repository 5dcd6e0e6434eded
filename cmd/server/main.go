package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/JonMunkholm/catalog/internal/approval"
	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/blob"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/store"
	"github.com/JonMunkholm/catalog/internal/web"
)

func main() {
	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	docs, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	blobs, mediaDir, err := openBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open blob store", "driver", cfg.Blob.Driver, "error", err)
		os.Exit(1)
	}

	core.ImportTimeout = cfg.Import.Timeout
	service := core.NewService(docs, blobs, core.Options{
		Languages:                cfg.Catalog.Languages,
		DefaultLowStockThreshold: cfg.Catalog.DefaultLowStockThreshold,
		RequireName:              cfg.Import.RequireName,
		BulkConcurrency:          cfg.Bulk.Concurrency,
		ImportConcurrency:        cfg.Import.Workers,
		MaxConcurrentImports:     cfg.Import.MaxConcurrent,
		ImportWait:               cfg.Import.MaxWaitTime,
		MaxImportRows:            cfg.Import.MaxRows,
		ThumbnailMaxBytes:        cfg.Blob.MaxThumbnailSize,
	}, logger)

	if err := service.Refresh(ctx); err != nil {
		logger.Error("initial catalog load failed", "error", err)
		os.Exit(1)
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	go service.StartReconcileScheduler(jobCtx, cfg.Catalog.ReconcileInterval)
	if cfg.Store.Watch {
		go func() {
			err := service.Watch(jobCtx)
			switch {
			case errors.Is(err, store.ErrSubscribeUnsupported):
				logger.Info("store has no change feed, relying on periodic reconcile")
			case err != nil:
				logger.Error("catalog subscription failed", "error", err)
			}
		}()
	}

	server := web.NewServer(cfg, web.Deps{
		Service:   service,
		Approvals: approval.NewService(docs, logger),
		Tokens:    auth.NewVerifier(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.TokenTTL),
		MediaDir:  mediaDir,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			logger.Info("waiting for imports to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("imports did not complete in time", "error", err)
			} else {
				logger.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openStore connects the configured document store. The returned func
// releases its resources.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.DocumentStore, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Store.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Store.MaxConns)
	poolConfig.MinConns = int32(cfg.Store.MinConns)
	poolConfig.MaxConnLifetime = cfg.Store.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Store.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Store.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	pg := store.NewPostgres(pool, store.WithLogger(logger))
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

// openBlobStore creates the thumbnail store. For the local driver the media
// directory is returned so the server can serve it.
func openBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, string, error) {
	if cfg.Blob.Driver == config.BlobDriverGCS {
		var opts []option.ClientOption
		if cfg.Blob.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Blob.CredentialsFile))
		}
		g, err := blob.NewGCS(ctx, cfg.Blob.Bucket, cfg.Blob.PublicURL, opts...)
		return g, "", err
	}

	local, err := blob.NewLocal(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}
