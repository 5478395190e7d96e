package cmd

import (
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
)

var functionHeaders = formatter.NewPair("function", "description")

func FunctionsCommand() *cli.Command {
	return &cli.Command{
		Name:        "functions",
		Usage:       "List cross-match functions",
		Description: `Print every cross-match function with its description in load order.`,
		Flags:       []cli.Flag{formatFlag()},
		Action: lookupAction(func(w io.Writer, engine query.Engine, _ cli.Args, format formatter.OutputFormat) error {
			return runFunctions(w, engine, format)
		}),
	}
}

func runFunctions(w io.Writer, engine query.Engine, format formatter.OutputFormat) error {
	out, err := formatter.NewFormatter().FormatPairs(functionHeaders, engine.ListFunctions(), format)

	return write(w, out, err)
}
