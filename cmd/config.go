package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration including all settings from file, environment variables, and command-line flags.
With --save the resolved configuration is written to the config file so later runs start from it.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the configuration as JSON"},
			&cli.BoolFlag{Name: "save", Usage: "Write the active configuration to the config file"},
		},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, _ *config.Config) error {
			if cmd.Bool("save") {
				return runConfigSave(ctx, output(cmd))
			}

			return runConfig(ctx, output(cmd), cmd.Bool("json"))
		}),
	}
}

func runConfig(ctx context.Context, w io.Writer, asJSON bool) error {
	cfg := getConfigFromContext(ctx)
	if cfg == nil {
		return errors.NewConfigError("failed to load configuration", "")
	}

	if asJSON {
		return printConfigJSON(w, cfg)
	}

	fmt.Fprintln(w, "====================")
	fmt.Fprintln(w, "Active Configuration:")

	fmt.Fprintln(w, "\nData:")
	fmt.Fprintf(w, "  Source: %s\n", cfg.Data.Source)
	fmt.Fprintf(w, "  Directory: %s\n", cfg.Data.Dir)
	fmt.Fprintf(w, "  Databases File: %s\n", cfg.Data.DatabasesFile)
	fmt.Fprintf(w, "  Tables File: %s\n", cfg.Data.TablesFile)
	fmt.Fprintf(w, "  Functions File: %s\n", cfg.Data.FunctionsFile)
	fmt.Fprintf(w, "  DuckDB Path: %s\n", cfg.Data.DuckDBPath)

	fmt.Fprintln(w, "\nCache:")
	fmt.Fprintf(w, "  Enabled: %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(w, "  Directory: %s\n", cfg.Cache.Directory)
	fmt.Fprintf(w, "  TTL: %d hours\n", cfg.Cache.TTLHours)

	fmt.Fprintln(w, "\nLogging:")
	fmt.Fprintf(w, "  Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Fprintf(w, "  File: %s\n", cfg.Logging.File)
	}

	fmt.Fprintln(w, "\nServer:")
	fmt.Fprintf(w, "  Name: %s\n", cfg.Server.Name)
	fmt.Fprintf(w, "  Version: %s\n", cfg.Server.Version)
	fmt.Fprintf(w, "  Transport: %s\n", cfg.Server.Transport)

	if cfg.Server.Transport == "http" {
		fmt.Fprintf(w, "  HTTP Address: %s\n", cfg.Server.HTTPAddr)
		fmt.Fprintf(w, "  HTTP Path: %s\n", cfg.Server.HTTPPath)
	}

	fmt.Fprintln(w, "\nDebug:")
	fmt.Fprintf(w, "  Enabled: %t\n", cfg.Debug.Enabled)

	if cfg.Debug.Enabled {
		fmt.Fprintf(w, "  Metrics Address: %s\n", cfg.Debug.MetricsAddr)

		fmt.Fprintln(w, "\nRaw Configuration (JSON):")
		fmt.Fprintln(w, "==========================")

		return printConfigJSON(w, cfg)
	}

	return nil
}

func runConfigSave(ctx context.Context, w io.Writer) error {
	cfg := getConfigFromContext(ctx)
	if cfg == nil {
		return errors.NewConfigError("failed to load configuration", "")
	}

	if err := config.SaveConfig(cfg); err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to save configuration")
	}

	fmt.Fprintf(w, "Configuration saved to %s\n", config.ConfigPath())

	return nil
}

func printConfigJSON(w io.Writer, cfg *config.Config) error {
	jsonData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON: %w", err)
	}

	fmt.Fprintln(w, string(jsonData))

	return nil
}
