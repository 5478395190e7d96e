package cmd

import (
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
)

var (
	databaseHeaders    = formatter.NewPair("database", "summary")
	descriptionHeaders = formatter.NewPair("Summary", "Remarks")
)

func DatabasesCommand() *cli.Command {
	return &cli.Command{
		Name:        "databases",
		Usage:       "List catalog databases with their summaries",
		Description: `Print every database row of the catalog in load order, duplicates included.`,
		Flags:       []cli.Flag{formatFlag()},
		Action: lookupAction(func(w io.Writer, engine query.Engine, _ cli.Args, format formatter.OutputFormat) error {
			return runDatabases(w, engine, format)
		}),
	}
}

func runDatabases(w io.Writer, engine query.Engine, format formatter.OutputFormat) error {
	out, err := formatter.NewFormatter().FormatPairs(databaseHeaders, engine.ListDatabases(), format)

	return write(w, out, err)
}

func DescribeCommand() *cli.Command {
	return &cli.Command{
		Name:        "describe",
		Usage:       "Show the summary and remarks of a database",
		Description: `Print the first distinct summary and remarks recorded for the named database.`,
		ArgsUsage:   " <database>",
		Flags:       []cli.Flag{formatFlag()},
		Action: lookupAction(func(w io.Writer, engine query.Engine, args cli.Args, format formatter.OutputFormat) error {
			name, err := exactlyOneArg(args, "database")
			if err != nil {
				return err
			}

			return runDescribe(w, engine, name, format)
		}),
	}
}

func runDescribe(w io.Writer, engine query.Engine, name string, format formatter.OutputFormat) error {
	pair, err := engine.DescribeDatabase(name)
	if err != nil {
		return err
	}

	out, err := formatter.NewFormatter().FormatPair(descriptionHeaders, pair, format)

	return write(w, out, err)
}
