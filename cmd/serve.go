package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/logging"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
	"github.com/kyleking/cas-sdss-mcp/internal/server"
	"github.com/kyleking/cas-sdss-mcp/internal/telemetry"
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog lookup tools",
		Description: `Load the catalog and serve the five lookup tools over stdio (default) or
streamable HTTP. With --debug, metrics and a health check are served on the debug address.`,
		Action: withConfig(runServe),
	}
}

func runServe(ctx context.Context, _ *cli.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.GetLogger().Named("serve")

	store, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)
	recordCatalogRows(metrics, store)

	if cfg.Debug.Enabled {
		go func() {
			err := telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
				Addr:     cfg.Debug.MetricsAddr,
				Registry: registry,
				Health:   catalogHealth(store, cfg),
			}, logger.Zap())
			if err != nil {
				logger.WithError(err).Warn("Debug server stopped")
			}
		}()
	}

	srv, err := server.New(query.NewCatalogEngine(store), server.Options{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if cfg.Server.Transport == "http" {
		return srv.RunHTTP(ctx, cfg.Server.HTTPAddr, cfg.Server.HTTPPath)
	}

	return srv.Run(ctx)
}

func recordCatalogRows(metrics *telemetry.Metrics, store *catalog.Store) {
	stats := store.Stats()
	metrics.SetCatalogRows("databases", stats.DatabaseRows)
	metrics.SetCatalogRows("table_columns", stats.TableColumnRows)
	metrics.SetCatalogRows("functions", stats.Functions)
}

func catalogHealth(store *catalog.Store, cfg *config.Config) func() telemetry.HealthReport {
	return func() telemetry.HealthReport {
		stats := store.Stats()

		return telemetry.HealthReport{
			Status: "ok",
			Details: map[string]any{
				"source":    cfg.Data.Source,
				"transport": cfg.Server.Transport,
				"catalogs":  stats.Catalogs,
				"tables":    stats.Tables,
				"functions": stats.Functions,
			},
		}
	}
}
