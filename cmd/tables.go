package cmd

import (
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
)

var columnHeaders = formatter.NewPair("column", "description")

func TablesCommand() *cli.Command {
	return &cli.Command{
		Name:        "tables",
		Usage:       "List the tables of a database",
		Description: `Print the distinct qualified table names (<database>.<table>) of a database.`,
		ArgsUsage:   " <database>",
		Flags:       []cli.Flag{formatFlag()},
		Action: lookupAction(func(w io.Writer, engine query.Engine, args cli.Args, format formatter.OutputFormat) error {
			name, err := exactlyOneArg(args, "database")
			if err != nil {
				return err
			}

			return runTables(w, engine, name, format)
		}),
	}
}

func runTables(w io.Writer, engine query.Engine, database string, format formatter.OutputFormat) error {
	out, err := formatter.NewFormatter().FormatStrings(engine.ListTables(database), format)

	return write(w, out, err)
}

func ColumnsCommand() *cli.Command {
	return &cli.Command{
		Name:  "columns",
		Usage: "List the columns of a table",
		Description: `Print the columns and descriptions of a table given as <database>.<table>,
for example SDSS17.PhotoObj.`,
		ArgsUsage: " <database.table>",
		Flags:     []cli.Flag{formatFlag()},
		Action: lookupAction(func(w io.Writer, engine query.Engine, args cli.Args, format formatter.OutputFormat) error {
			table, err := exactlyOneArg(args, "table")
			if err != nil {
				return err
			}

			return runColumns(w, engine, table, format)
		}),
	}
}

func runColumns(w io.Writer, engine query.Engine, table string, format formatter.OutputFormat) error {
	columns, err := engine.ListColumns(table)
	if err != nil {
		return err
	}

	out, err := formatter.NewFormatter().FormatPairs(columnHeaders, columns, format)

	return write(w, out, err)
}
