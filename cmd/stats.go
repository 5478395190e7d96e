package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/storage"
)

func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:        "stats",
		Usage:       "Display catalog statistics",
		Description: `Show row counts for each dataset, distinct databases and tables, the last import time,
the database size and which schema migrations are applied.`,
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
			return runStats(ctx, output(cmd), cfg)
		}),
	}
}

func runStats(ctx context.Context, w io.Writer, cfg *config.Config) error {
	return runStatsWithStorage(ctx, w, cfg, nil)
}

func runStatsWithStorage(ctx context.Context, w io.Writer, cfg *config.Config, repo storage.Repository) error {
	// Initialize storage if not provided (for testing)
	if repo == nil {
		var err error

		repo, err = initializeStorage(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		defer repo.Close()
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	fmt.Fprintf(w, "Catalog Statistics\n")
	fmt.Fprintf(w, "==================\n\n")

	if cfg != nil {
		fmt.Fprintf(w, "Source: %s\n", cfg.Data.Source)
	}

	fmt.Fprintf(w, "Databases: %d (%d rows)\n", stats.Catalogs, stats.DatabaseRows)
	fmt.Fprintf(w, "Tables: %d (%d column rows)\n", stats.Tables, stats.TableColumnRows)
	fmt.Fprintf(w, "Functions: %d\n", stats.FunctionRows)

	if stats.DatabaseSizeMB > 0 {
		fmt.Fprintf(w, "Database Size: %.2f MB\n", stats.DatabaseSizeMB)
	}

	if !stats.LastImportTime.IsZero() {
		fmt.Fprintf(w, "Last Import: %s\n", stats.LastImportTime.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(w, "Last Import: Never\n")
	}

	schema, err := repo.SchemaStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema status: %w", err)
	}

	applied := 0
	for _, m := range schema {
		if m.Applied {
			applied++
		}
	}

	fmt.Fprintf(w, "Schema: %d/%d migrations applied\n", applied, len(schema))

	for _, m := range schema {
		if !m.Applied {
			fmt.Fprintf(w, "  Pending: %d %s\n", m.Version, m.Description)
		}
	}

	return nil
}
