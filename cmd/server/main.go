// Command server serves the XELIS stats views, dashboards and snapshot
// archive over HTTP, and pushes dashboard updates over a websocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"xelis-stats/internal/config"
	"xelis-stats/internal/dashboard"
	"xelis-stats/internal/logging"
	"xelis-stats/internal/observability"
	"xelis-stats/internal/storage"
	"xelis-stats/internal/storage/memory"
	"xelis-stats/internal/storage/migrations"
	chstore "xelis-stats/internal/storage/clickhouse"
	pgstore "xelis-stats/internal/storage/postgres"
	"xelis-stats/internal/viewapi"
	"xelis-stats/internal/viewapi/stub"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	observability.Init(cfg.Metrics.Namespace)
	logger.Info("configuration loaded", "config", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	snapshots, cleanup, err := createSnapshotStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("create snapshot store: %w", err)
	}
	defer cleanup()

	var layout *dashboard.Layout
	if cfg.Dashboard.Layout != "" {
		if layout, err = dashboard.LoadLayout(cfg.Dashboard.Layout); err != nil {
			return err
		}
		logger.Info("dashboard layout loaded", "file", cfg.Dashboard.Layout, "boxes", len(layout.Boxes))
	}

	server := NewServer(Options{
		Fetcher:         newFetcher(cfg, logger),
		Snapshots:       snapshots,
		Layout:          layout,
		Asset:           cfg.Dashboard.Asset,
		HashratePeriod:  cfg.Dashboard.HashratePeriod,
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		StorageBackend:  cfg.Storage.Backend,
		Logger:          logger,
	})
	defer server.Close()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("dashboard refresh: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("graceful shutdown failed", "error", serr)
	}
	logger.Info("shutdown complete")
	return err
}

func newFetcher(cfg *config.Config, logger *slog.Logger) viewapi.Fetcher {
	if cfg.UseFixtures {
		logger.Warn("serving fixture data, the index endpoint is not used")
		return stub.Fixtures(time.Now())
	}
	return viewapi.NewHTTPClient(cfg.Endpoint,
		viewapi.WithTimeout(cfg.FetchTimeout),
		viewapi.WithMaxRetries(cfg.FetchRetries),
		viewapi.WithLogger(logger),
	)
}

// createSnapshotStore opens the configured archive backend and applies its
// migrations. BackendNone returns a nil store.
func createSnapshotStore(ctx context.Context, cfg config.StorageConfig) (storage.SnapshotStore, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewSnapshotStore(), func() {}, nil

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewSnapshotStore(pool), pool.Close, nil

	case config.BackendClickHouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return nil, nil, err
		}
		return chstore.NewSnapshotStore(conn), func() { conn.Close() }, nil
	}
	return nil, func() {}, nil
}
