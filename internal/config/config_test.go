package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, "database_names.parquet", cfg.Data.DatabasesFile)
	assert.Equal(t, "tbls_cols.parquet", cfg.Data.TablesFile)
	assert.Equal(t, "x_match_fns.parquet", cfg.Data.FunctionsFile)
	assert.Equal(t, "files", cfg.Data.Source)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "/mcp", cfg.Server.HTTPPath)
	assert.False(t, cfg.Debug.Enabled)
}

func TestDefaultConfigIgnoresEnvironment(t *testing.T) {
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")

	assert.Equal(t, "info", DefaultConfig().Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	testConfig := map[string]any{
		"data": map[string]any{
			"dir":         "/srv/sdss",
			"source":      "duckdb",
			"duckdb_path": "/srv/sdss/catalog.duckdb",
		},
		"logging": map[string]any{
			"level":  "debug",
			"format": "json",
			"output": "file",
			"file":   "/custom/log/path.log",
		},
		"debug": map[string]any{
			"enabled": true,
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	config := DefaultConfig()
	require.NoError(t, loadConfigFromFile(config, configPath))

	assert.Equal(t, "/srv/sdss", config.Data.Dir)
	assert.Equal(t, "duckdb", config.Data.Source)
	assert.Equal(t, "/srv/sdss/catalog.duckdb", config.Data.DuckDBPath)
	assert.Equal(t, "database_names.parquet", config.Data.DatabasesFile)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "file", config.Logging.Output)
	assert.Equal(t, "/custom/log/path.log", config.Logging.File)
	assert.True(t, config.Debug.Enabled)
}

func TestLoadConfigFromFileInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid json"), 0600))

	err := loadConfigFromFile(DefaultConfig(), configPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestApplyEnvironment(t *testing.T) {
	envVars := map[string]string{
		EnvPrefix + "DATA_DIR":         "/env/data",
		EnvPrefix + "LOG_LEVEL":        "warn",
		EnvPrefix + "SERVER_TRANSPORT": "http",
		EnvPrefix + "CACHE_ENABLED":    "true",
		EnvPrefix + "CACHE_TTL_HOURS":  "6",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	config := &Config{}
	require.NoError(t, applyEnvironment(config))

	assert.Equal(t, "/env/data", config.Data.Dir)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "http", config.Server.Transport)
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, 6, config.Cache.TTLHours)
	assert.Equal(t, "x_match_fns.parquet", config.Data.FunctionsFile)
}

func TestApplyEnvironmentOverridesOnlyChangedValues(t *testing.T) {
	t.Setenv(EnvPrefix+"LOG_LEVEL", "error")

	config := DefaultConfig()
	config.Data.Dir = "/from/file"

	require.NoError(t, applyEnvironmentOverrides(config))

	assert.Equal(t, "error", config.Logging.Level)
	assert.Equal(t, "/from/file", config.Data.Dir)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := DefaultConfig()

	overrides := map[string]any{
		"data-dir":  "/flag/data",
		"log-level": "debug",
		"transport": "http",
		"http-addr": "0.0.0.0:9000",
		"cache":     true,
		"debug":     true,
		"source":    "",
	}

	require.NoError(t, applyFlagOverrides(config, overrides))

	assert.Equal(t, "/flag/data", config.Data.Dir)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "http", config.Server.Transport)
	assert.Equal(t, "0.0.0.0:9000", config.Server.HTTPAddr)
	assert.True(t, config.Cache.Enabled)
	assert.True(t, config.Debug.Enabled)
	assert.Equal(t, "files", config.Data.Source)
}

func TestApplyFlagOverridesUnknownFlag(t *testing.T) {
	err := applyFlagOverrides(DefaultConfig(), map[string]any{"verbose": true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag override")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "invalid log output",
			modify:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "invalid log output",
		},
		{
			name:    "stdout logging with stdio transport",
			modify:  func(c *Config) { c.Logging.Output = "stdout" },
			wantErr: "cannot be used with the stdio transport",
		},
		{
			name: "stdout logging with http transport",
			modify: func(c *Config) {
				c.Logging.Output = "stdout"
				c.Server.Transport = "http"
			},
		},
		{
			name: "http transport without address",
			modify: func(c *Config) {
				c.Server.Transport = "http"
				c.Server.HTTPAddr = ""
			},
			wantErr: "http address is required",
		},
		{
			name:    "invalid transport",
			modify:  func(c *Config) { c.Server.Transport = "sse" },
			wantErr: "invalid server transport",
		},
		{
			name:    "missing dataset file",
			modify:  func(c *Config) { c.Data.TablesFile = "" },
			wantErr: "files are required",
		},
		{
			name: "duckdb without path",
			modify: func(c *Config) {
				c.Data.Source = "duckdb"
				c.Data.DuckDBPath = ""
			},
			wantErr: "duckdb path is required",
		},
		{
			name:    "invalid source",
			modify:  func(c *Config) { c.Data.Source = "postgres" },
			wantErr: "invalid data source",
		},
		{
			name:    "non-positive ttl",
			modify:  func(c *Config) { c.Cache.TTLHours = 0 },
			wantErr: "cache ttl hours must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := validateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
	}{
		{"~", homeDir},
		{"~/data/catalog.duckdb", filepath.Join(homeDir, "data/catalog.duckdb")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~user/path", "~user/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func TestConfigExpandAllPaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	config := DefaultConfig()
	config.Data.Dir = "~/sdss"
	config.ExpandAllPaths()

	assert.Equal(t, filepath.Join(homeDir, "sdss"), config.Data.Dir)
	assert.Equal(t, filepath.Join(homeDir, ".config/cas-sdss-mcp/catalog.duckdb"), config.Data.DuckDBPath)
	assert.Equal(t, filepath.Join(homeDir, ".cache/cas-sdss-mcp"), config.Cache.Directory)
	assert.Equal(t, filepath.Join(homeDir, ".config/cas-sdss-mcp/logs/server.log"), config.Logging.File)
}

func TestDataConfig_DataPath(t *testing.T) {
	data := DataConfig{Dir: "/srv/sdss"}

	assert.Equal(t, "/srv/sdss/tbls_cols.parquet", data.DataPath("tbls_cols.parquet"))
	assert.Equal(t, "/elsewhere/fns.parquet", data.DataPath("/elsewhere/fns.parquet"))
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")
	t.Setenv(EnvPrefix+"CONFIG", configPath)

	config := DefaultConfig()
	config.Data.Dir = "/saved/data"

	require.NoError(t, SaveConfig(config))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var saved Config
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "/saved/data", saved.Data.Dir)
}

func TestLoadConfigWithOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(EnvPrefix+"CONFIG", configPath)

	fileConfig := map[string]any{
		"data":    map[string]any{"dir": "/file/data"},
		"logging": map[string]any{"level": "warn"},
	}
	data, err := json.Marshal(fileConfig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	t.Setenv(EnvPrefix+"LOG_LEVEL", "error")

	config, err := LoadConfigWithOverrides(map[string]any{"data-dir": "/flag/data"})
	require.NoError(t, err)

	assert.Equal(t, "/flag/data", config.Data.Dir)
	assert.Equal(t, "error", config.Logging.Level)
	assert.Equal(t, "stdio", config.Server.Transport)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	config, err := LoadConfigWithOverrides(nil)
	require.NoError(t, err)
	assert.Equal(t, "files", config.Data.Source)
}

func TestLoadConfigRejectsInvalidFlag(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	_, err := LoadConfigWithOverrides(map[string]any{"log-level": "loud"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestMergeConfigs(t *testing.T) {
	target := DefaultConfig()
	source := &Config{
		Data:  DataConfig{Dir: "/merged"},
		Cache: CacheConfig{Enabled: true},
	}

	mergeConfigs(target, source)

	assert.Equal(t, "/merged", target.Data.Dir)
	assert.True(t, target.Cache.Enabled)
	assert.Equal(t, "tbls_cols.parquet", target.Data.TablesFile)
	assert.Equal(t, "info", target.Logging.Level)
}
