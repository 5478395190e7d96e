package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
	"github.com/kyleking/cas-sdss-mcp/internal/testutil"
)

// setupCLIEnv points every configured path at fresh fixtures and temp dirs
func setupCLIEnv(t *testing.T) (dataDir, duckdbPath string) {
	t.Helper()

	dataDir = testutil.WriteFixtureFiles(t)
	scratch := t.TempDir()
	duckdbPath = filepath.Join(scratch, "catalog.duckdb")

	t.Setenv(config.EnvPrefix+"CONFIG", filepath.Join(scratch, "absent-config.json"))
	t.Setenv(config.EnvPrefix+"DATA_DIR", dataDir)
	t.Setenv(config.EnvPrefix+"DATABASES_FILE", testutil.DatabasesFile)
	t.Setenv(config.EnvPrefix+"TABLES_FILE", testutil.TablesFile)
	t.Setenv(config.EnvPrefix+"FUNCTIONS_FILE", testutil.FunctionsFile)
	t.Setenv(config.EnvPrefix+"DATA_SOURCE", "files")
	t.Setenv(config.EnvPrefix+"DUCKDB_PATH", duckdbPath)
	t.Setenv(config.EnvPrefix+"CACHE_DIR", filepath.Join(scratch, "cache"))
	t.Setenv(config.EnvPrefix+"LOG_OUTPUT", "stderr")

	return dataDir, duckdbPath
}

// runCLI executes the command tree with args and returns what it printed
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := NewRootCommand()
	root.Writer = &out
	root.ErrWriter = &out
	root.Reader = strings.NewReader(stdin)

	err := root.Run(context.Background(), append([]string{"cas-sdss-mcp"}, args...))

	return out.String(), err
}

func sampleEngine() query.Engine {
	return query.NewCatalogEngine(testutil.NewSampleStore())
}
