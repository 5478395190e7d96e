package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by the configuration
const EnvPrefix = "CAS_SDSS_MCP_"

const appName = "cas-sdss-mcp"

// Config represents the application configuration
type Config struct {
	Data    DataConfig    `json:"data"`
	Cache   CacheConfig   `json:"cache"`
	Logging LoggingConfig `json:"logging"`
	Server  ServerConfig  `json:"server"`
	Debug   DebugConfig   `json:"debug"`
}

// DataConfig locates the catalog datasets
type DataConfig struct {
	Dir           string `json:"dir"            env:"DATA_DIR"        envDefault:"./data"`
	DatabasesFile string `json:"databases_file" env:"DATABASES_FILE"  envDefault:"database_names.parquet"`
	TablesFile    string `json:"tables_file"    env:"TABLES_FILE"     envDefault:"tbls_cols.parquet"`
	FunctionsFile string `json:"functions_file" env:"FUNCTIONS_FILE"  envDefault:"x_match_fns.parquet"`
	Source        string `json:"source"         env:"DATA_SOURCE"     envDefault:"files"` // files, duckdb
	DuckDBPath    string `json:"duckdb_path"    env:"DUCKDB_PATH"     envDefault:"~/.config/cas-sdss-mcp/catalog.duckdb"`
}

// CacheConfig represents the catalog snapshot cache
type CacheConfig struct {
	Enabled   bool   `json:"enabled"   env:"CACHE_ENABLED"   envDefault:"false"`
	Directory string `json:"directory" env:"CACHE_DIR"       envDefault:"~/.cache/cas-sdss-mcp"`
	TTLHours  int    `json:"ttl_hours" env:"CACHE_TTL_HOURS" envDefault:"24"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`                                   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`                                   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"`                                 // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.config/cas-sdss-mcp/logs/server.log"` // log file path when output is file
}

// ServerConfig represents the tool server
type ServerConfig struct {
	Name      string `json:"name"      env:"SERVER_NAME"      envDefault:"cas-sdss-mcp"`
	Version   string `json:"version"   env:"SERVER_VERSION"   envDefault:"0.1.0"`
	Transport string `json:"transport" env:"SERVER_TRANSPORT" envDefault:"stdio"` // stdio, http
	HTTPAddr  string `json:"http_addr" env:"SERVER_HTTP_ADDR" envDefault:"127.0.0.1:8090"`
	HTTPPath  string `json:"http_path" env:"SERVER_HTTP_PATH" envDefault:"/mcp"`
}

// DebugConfig represents debug configuration
type DebugConfig struct {
	Enabled     bool   `json:"enabled"      env:"DEBUG"              envDefault:"false"`
	MetricsAddr string `json:"metrics_addr" env:"DEBUG_METRICS_ADDR" envDefault:"127.0.0.1:9090"`
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides
func LoadConfigWithOverrides(flagOverrides map[string]any) (*Config, error) {
	config := &Config{}

	// Defaults and environment first, then let the file override non-zero values
	if err := applyEnvironment(config); err != nil {
		return nil, err
	}

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}

		// Environment wins over the file
		if err := applyEnvironmentOverrides(config); err != nil {
			return nil, err
		}
	}

	if flagOverrides != nil {
		if err := applyFlagOverrides(config, flagOverrides); err != nil {
			return nil, fmt.Errorf("failed to apply flag overrides: %w", err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.ExpandAllPaths()

	return config, nil
}

// DefaultConfig returns the configuration built from defaults only
func DefaultConfig() *Config {
	config := &Config{}
	_ = env.ParseWithOptions(config, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	})

	return config
}

// applyEnvironment sets defaults and environment values
func applyEnvironment(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides applies only variables that are actually set
func applyEnvironmentOverrides(config *Config) error {
	overrides := &Config{}
	if err := env.ParseWithOptions(overrides, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}

	defaults := DefaultConfig()
	mergeChanged(config, overrides, defaults)

	return nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]any) error {
	for key, value := range overrides {
		switch key {
		case "data-dir":
			if str, ok := value.(string); ok && str != "" {
				config.Data.Dir = str
			}
		case "source":
			if str, ok := value.(string); ok && str != "" {
				config.Data.Source = str
			}
		case "duckdb-path":
			if str, ok := value.(string); ok && str != "" {
				config.Data.DuckDBPath = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "transport":
			if str, ok := value.(string); ok && str != "" {
				config.Server.Transport = str
			}
		case "http-addr":
			if str, ok := value.(string); ok && str != "" {
				config.Server.HTTPAddr = str
			}
		case "cache":
			if b, ok := value.(bool); ok {
				config.Cache.Enabled = b
			}
		case "debug":
			if b, ok := value.(bool); ok {
				config.Debug.Enabled = b
			}
		default:
			return fmt.Errorf("unknown flag override: %s", key)
		}
	}

	return nil
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// mergeChanged copies fields of source that differ from their defaults
func mergeChanged(target, source, defaults *Config) {
	var mergeValues func(t, s, d reflect.Value)
	mergeValues = func(t, s, d reflect.Value) {
		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i), d.Field(i))
			}

			return
		}

		if !reflect.DeepEqual(s.Interface(), d.Interface()) {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem(), reflect.ValueOf(defaults).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	switch strings.ToLower(config.Server.Transport) {
	case "stdio":
		// stdout carries the protocol stream
		if strings.ToLower(config.Logging.Output) == "stdout" {
			return fmt.Errorf("log output stdout cannot be used with the stdio transport")
		}
	case "http":
		if config.Server.HTTPAddr == "" {
			return fmt.Errorf("server http address is required for the http transport")
		}
	default:
		return fmt.Errorf("invalid server transport: %s (must be stdio or http)", config.Server.Transport)
	}

	switch strings.ToLower(config.Data.Source) {
	case "files":
		if config.Data.DatabasesFile == "" || config.Data.TablesFile == "" || config.Data.FunctionsFile == "" {
			return fmt.Errorf("databases, tables and functions files are required")
		}
	case "duckdb":
		if config.Data.DuckDBPath == "" {
			return fmt.Errorf("duckdb path is required when source is duckdb")
		}
	default:
		return fmt.Errorf("invalid data source: %s (must be files or duckdb)", config.Data.Source)
	}

	if config.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache ttl hours must be positive: %d", config.Cache.TTLHours)
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() string {
	if configPath := os.Getenv(EnvPrefix + "CONFIG"); configPath != "" {
		return ExpandPath(configPath)
	}

	return filepath.Join(GetConfigDir(), "config.json")
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Data.Dir = ExpandPath(c.Data.Dir)
	c.Data.DuckDBPath = ExpandPath(c.Data.DuckDBPath)
	c.Cache.Directory = ExpandPath(c.Cache.Directory)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// DataPath resolves a dataset file name against the data directory
func (c *DataConfig) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.Dir, name)
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName)
	}

	return filepath.Join(homeDir, ".config", appName)
}
