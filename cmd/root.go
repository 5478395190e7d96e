package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
	"github.com/kyleking/cas-sdss-mcp/internal/logging"
)

type configKey struct{}

var (
	stringOverrides = []string{"data-dir", "source", "duckdb-path", "log-level", "transport", "http-addr"}
	boolOverrides   = []string{"cache", "debug"}
)

// NewRootCommand builds the command tree. Running it without a subcommand serves the tools.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "cas-sdss-mcp",
		Usage: "Serve SDSS CasJobs catalog metadata to model clients",
		Description: `cas-sdss-mcp loads the SDSS catalog metadata datasets (database descriptions,
table columns and cross-match functions) and answers lookups over them, either as
protocol tools for a model client or directly from the command line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "Directory holding the catalog datasets"},
			&cli.StringFlag{Name: "source", Usage: "Catalog source: files or duckdb"},
			&cli.StringFlag{Name: "duckdb-path", Usage: "Path of the imported catalog database"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn or error"},
			&cli.StringFlag{Name: "transport", Usage: "Tool transport: stdio or http"},
			&cli.StringFlag{Name: "http-addr", Usage: "Listen address for the http transport"},
			&cli.BoolFlag{Name: "cache", Usage: "Cache the decoded catalog between starts"},
			&cli.BoolFlag{Name: "debug", Usage: "Serve metrics and health on the debug address"},
		},
		Action: withConfig(runServe),
		Commands: []*cli.Command{
			ServeCommand(),
			DatabasesCommand(),
			DescribeCommand(),
			TablesCommand(),
			ColumnsCommand(),
			FunctionsCommand(),
			ImportCommand(),
			StatsCommand(),
			ClearCommand(),
			ConfigCommand(),
		},
	}
}

// Execute runs the command line
func Execute() error {
	return NewRootCommand().Run(context.Background(), os.Args)
}

// PrintError writes err for a terminal user along with its cause and suggestions
func PrintError(w io.Writer, err error) {
	var structErr *errors.Error
	if !stderrors.As(err, &structErr) {
		fmt.Fprintf(w, "Error: %s\n", err)
		return
	}

	fmt.Fprintf(w, "Error: %s\n", structErr.Message)

	if structErr.Cause != nil {
		fmt.Fprintf(w, "  Cause: %v\n", structErr.Cause)
	}

	for _, suggestion := range structErr.Suggestions {
		fmt.Fprintf(w, "  Suggestion: %s\n", suggestion)
	}
}

// withConfig resolves configuration and logging before handing off to run
func withConfig(
	run func(ctx context.Context, cmd *cli.Command, cfg *config.Config) error,
) func(context.Context, *cli.Command) error {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := config.LoadConfigWithOverrides(flagOverrides(cmd))
		if err != nil {
			logging.SetupFallbackLogger()
			return err
		}

		if err := logging.InitializeLogger(cfg.Logging); err != nil {
			logging.SetupFallbackLogger()
			logging.WithError(err).Warn("Falling back to stderr logging")
		}

		return run(context.WithValue(ctx, configKey{}, cfg), cmd, cfg)
	}
}

// flagOverrides collects the global flags set on the command line
func flagOverrides(cmd *cli.Command) map[string]any {
	overrides := make(map[string]any)

	for _, name := range stringOverrides {
		if cmd.IsSet(name) {
			overrides[name] = cmd.String(name)
		}
	}

	for _, name := range boolOverrides {
		if cmd.IsSet(name) {
			overrides[name] = cmd.Bool(name)
		}
	}

	return overrides
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}

	return nil
}

// output returns the writer configured on the root command
func output(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}

	return os.Stdout
}

// input returns the reader configured on the root command
func input(cmd *cli.Command) io.Reader {
	if root := cmd.Root(); root != nil && root.Reader != nil {
		return root.Reader
	}

	return os.Stdin
}
