package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   string(formatter.FormatTable),
		Usage:   "Output format: table or json",
	}
}

// lookupAction loads the catalog and hands an engine to run
func lookupAction(
	run func(w io.Writer, engine query.Engine, args cli.Args, format formatter.OutputFormat) error,
) func(context.Context, *cli.Command) error {
	return withConfig(func(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
		format, err := formatter.ParseOutputFormat(cmd.String("format"))
		if err != nil {
			return err
		}

		store, err := loadCatalog(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		return run(output(cmd), query.NewCatalogEngine(store), cmd.Args(), format)
	})
}

func exactlyOneArg(args cli.Args, what string) (string, error) {
	if args.Len() != 1 {
		return "", fmt.Errorf("expected exactly 1 argument (%s), got %d", what, args.Len())
	}

	return args.First(), nil
}

func write(w io.Writer, out string, err error) error {
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)

	return err
}
