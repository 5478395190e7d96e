package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/logging"
	"github.com/kyleking/cas-sdss-mcp/internal/storage"
)

func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import the catalog datasets into a DuckDB database",
		Description: `Read the three catalog datasets from the data directory and replace their
contents in the DuckDB database at --duckdb-path. Serve with --source duckdb afterwards
to start from the imported copy. --reset rolls the schema back and recreates it first.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide the progress spinner"},
			&cli.BoolFlag{Name: "reset", Usage: "Drop and recreate the catalog schema before importing"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
			repo, err := storage.NewDuckDBRepositoryFromConfig(&cfg.Data)
			if err != nil {
				return fmt.Errorf("failed to open catalog database: %w", err)
			}
			defer repo.Close()

			opts := importOptions{progress: !cmd.Bool("quiet"), reset: cmd.Bool("reset")}

			return runImport(ctx, output(cmd), repo, storage.SourcesFromConfig(&cfg.Data), opts)
		}),
	}
}

type importOptions struct {
	progress bool
	reset    bool
}

func runImport(ctx context.Context, w io.Writer, repo storage.Repository, sources storage.Sources, opts importOptions) error {
	if err := repo.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize catalog database: %w", err)
	}

	if opts.reset {
		if err := repo.ResetSchema(ctx); err != nil {
			return err
		}

		logging.Info("Catalog schema reset")
		fmt.Fprintln(w, "Schema reset.")
	}

	if opts.progress {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Importing catalog datasets..."
		s.Start()
		defer s.Stop()
	}

	result, err := repo.ImportSources(ctx, sources)
	if err != nil {
		return err
	}

	logging.WithFields(map[string]any{
		"databases":     result.DatabaseRows,
		"table_columns": result.TableColumnRows,
		"functions":     result.FunctionRows,
		"duration":      result.Duration,
	}).Info("Catalog imported")

	fmt.Fprintf(w, "Imported catalog in %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Database rows: %d\n", result.DatabaseRows)
	fmt.Fprintf(w, "  Table column rows: %d\n", result.TableColumnRows)
	fmt.Fprintf(w, "  Function rows: %d\n", result.FunctionRows)

	return nil
}
