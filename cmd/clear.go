package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/cache"
	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/storage"
)

func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Clear cached catalog snapshots and imported data",
		Description: `Remove cached catalog snapshots. With --database the rows imported into the
DuckDB database are deleted as well. This action requires confirmation.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip confirmation prompt"},
			&cli.BoolFlag{Name: "database", Usage: "Also delete the imported catalog rows"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
			c, err := cache.NewFileCache(cfg.Cache.Directory, snapshotCacheSizeMB, cacheTTL(cfg))
			if err != nil {
				return fmt.Errorf("failed to open snapshot cache: %w", err)
			}

			var repo storage.Repository

			if cmd.Bool("database") {
				dbRepo, err := storage.NewDuckDBRepositoryFromConfig(&cfg.Data)
				if err != nil {
					return fmt.Errorf("failed to open catalog database: %w", err)
				}
				defer dbRepo.Close()

				if err := dbRepo.Initialize(ctx); err != nil {
					return fmt.Errorf("failed to initialize catalog database: %w", err)
				}

				repo = dbRepo
			}

			return runClear(ctx, output(cmd), input(cmd), cmd.Bool("force"), c, repo)
		}),
	}
}

// runClear empties the snapshot cache and, when repo is non-nil, the imported catalog
func runClear(
	ctx context.Context,
	w io.Writer,
	r io.Reader,
	force bool,
	c cache.Cache,
	repo storage.Repository,
) error {
	expired, err := c.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune snapshot cache: %w", err)
	}

	if expired > 0 {
		fmt.Fprintf(w, "Removed %d expired snapshots.\n", expired)
	}

	cacheStats, err := c.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get cache statistics: %w", err)
	}

	var dbStats *storage.Stats
	if repo != nil {
		dbStats, err = repo.GetStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get statistics: %w", err)
		}
	}

	importedRows := 0
	if dbStats != nil {
		importedRows = dbStats.DatabaseRows + dbStats.TableColumnRows + dbStats.FunctionRows
	}

	if cacheStats.TotalEntries == 0 && importedRows == 0 {
		fmt.Fprintln(w, "Nothing to clear.")
		return nil
	}

	fmt.Fprintf(w, "This will delete:\n")
	fmt.Fprintf(w, "  • %d cached snapshots (%.2f MB)\n", cacheStats.TotalEntries, float64(cacheStats.TotalSize)/(1024*1024))

	if dbStats != nil {
		fmt.Fprintf(w, "  • %d imported database rows\n", dbStats.DatabaseRows)
		fmt.Fprintf(w, "  • %d imported table column rows\n", dbStats.TableColumnRows)
		fmt.Fprintf(w, "  • %d imported function rows\n", dbStats.FunctionRows)
	}

	if !force {
		fmt.Fprintf(w, "\nAre you sure you want to clear this data? This action cannot be undone.\n")
		fmt.Fprintf(w, "Type 'yes' to confirm: ")

		response, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Fprintln(w, "Operation cancelled.")
			return nil
		}
	}

	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear snapshot cache: %w", err)
	}

	if repo != nil {
		if err := repo.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
	}

	fmt.Fprintln(w, "Cleared successfully.")

	return nil
}
