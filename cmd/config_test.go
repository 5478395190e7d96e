package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
)

func TestRunConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.Config)
		contains    []string
		notContains []string
	}{
		{
			name: "defaults",
			contains: []string{
				"Active Configuration:",
				"Data:",
				"Source: files",
				"Databases File: database_names.parquet",
				"Cache:",
				"Enabled: false",
				"TTL: 24 hours",
				"Logging:",
				"Level: info",
				"Output: stderr",
				"Server:",
				"Transport: stdio",
				"Debug:",
			},
			notContains: []string{"HTTP Address:", "Raw Configuration (JSON):", "Metrics Address:"},
		},
		{
			name: "http transport with debug",
			mutate: func(cfg *config.Config) {
				cfg.Server.Transport = "http"
				cfg.Debug.Enabled = true
				cfg.Logging.Output = "file"
			},
			contains: []string{
				"HTTP Address: 127.0.0.1:8090",
				"HTTP Path: /mcp",
				"Metrics Address: 127.0.0.1:9090",
				"File: ",
				"Raw Configuration (JSON):",
				`"transport": "http"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			ctx := context.WithValue(context.Background(), configKey{}, cfg)

			var buf bytes.Buffer
			require.NoError(t, runConfig(ctx, &buf, false))

			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}

			for _, unwanted := range tt.notContains {
				assert.NotContains(t, buf.String(), unwanted)
			}
		})
	}
}

func TestRunConfig_MissingConfig(t *testing.T) {
	err := runConfig(context.Background(), &bytes.Buffer{}, false)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestConfigCommand_FlagOverrides(t *testing.T) {
	dataDir, _ := setupCLIEnv(t)

	out, err := runCLI(t, "",
		"--source", "duckdb",
		"--transport", "http",
		"--http-addr", "127.0.0.1:18090",
		"--log-level", "debug",
		"--cache",
		"config", "--json",
	)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))

	assert.Equal(t, "duckdb", cfg.Data.Source)
	assert.Equal(t, dataDir, cfg.Data.Dir)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, "127.0.0.1:18090", cfg.Server.HTTPAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Debug.Enabled)
}

func TestConfigCommand_InvalidOverride(t *testing.T) {
	setupCLIEnv(t)

	_, err := runCLI(t, "", "--transport", "carrier-pigeon", "config")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfigCommand_Save(t *testing.T) {
	setupCLIEnv(t)

	configPath := filepath.Join(t.TempDir(), "saved", "config.json")
	t.Setenv(config.EnvPrefix+"CONFIG", configPath)

	out, err := runCLI(t, "", "--http-addr", "127.0.0.1:18091", "config", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved to "+configPath)
	assert.FileExists(t, configPath)

	// Later runs start from the saved file without the flag
	out, err = runCLI(t, "", "config", "--json")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "127.0.0.1:18091", cfg.Server.HTTPAddr)
}

func TestRunConfigSave_MissingConfig(t *testing.T) {
	err := runConfigSave(context.Background(), &bytes.Buffer{})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}
