package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/storage"
	"github.com/kyleking/cas-sdss-mcp/internal/testutil"
)

func fixtureSources(t *testing.T) storage.Sources {
	t.Helper()

	dir := testutil.WriteFixtureFiles(t)

	return storage.Sources{
		Databases:    filepath.Join(dir, testutil.DatabasesFile),
		TableColumns: filepath.Join(dir, testutil.TablesFile),
		Functions:    filepath.Join(dir, testutil.FunctionsFile),
	}
}

func TestRunStatsWithStorage(t *testing.T) {
	tests := []struct {
		name     string
		populate bool
		contains []string
	}{
		{
			name:     "imported catalog",
			populate: true,
			contains: []string{
				"Catalog Statistics",
				"Source: duckdb",
				"Databases: 3 (5 rows)",
				"Tables: 3 (5 column rows)",
				"Functions: 2",
				"Database Size:",
				"Last Import: ",
				"Schema: 2/2 migrations applied",
			},
		},
		{
			name: "empty database",
			contains: []string{
				"Databases: 0 (0 rows)",
				"Tables: 0 (0 column rows)",
				"Functions: 0",
				"Last Import: Never",
				"Schema: 2/2 migrations applied",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				repo    *storage.DuckDBRepository
				cleanup func()
			)

			if tt.populate {
				repo, cleanup = storage.NewTestDBWithData(t, fixtureSources(t))
			} else {
				repo, cleanup = storage.NewTestDB(t)
			}
			defer cleanup()

			cfg := &config.Config{Data: config.DataConfig{Source: "duckdb"}}

			var buf bytes.Buffer
			require.NoError(t, runStatsWithStorage(context.Background(), &buf, cfg, repo))

			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

// staleSchemaRepo reports a migration as not yet applied
type staleSchemaRepo struct {
	*storage.DuckDBRepository
}

func (staleSchemaRepo) SchemaStatus(context.Context) ([]storage.MigrationStatus, error) {
	return []storage.MigrationStatus{
		{Version: 1, Description: "Catalog tables", Applied: true},
		{Version: 2, Description: "Import history"},
	}, nil
}

func TestRunStatsWithStorage_PendingMigration(t *testing.T) {
	repo, cleanup := storage.NewTestDB(t)
	defer cleanup()

	var buf bytes.Buffer
	require.NoError(t, runStatsWithStorage(context.Background(), &buf, nil, staleSchemaRepo{repo}))

	assert.Contains(t, buf.String(), "Schema: 1/2 migrations applied")
	assert.Contains(t, buf.String(), "Pending: 2 Import history")
}

func TestStatsCommand_FilesSource(t *testing.T) {
	setupCLIEnv(t)

	out, err := runCLI(t, "", "stats")
	require.NoError(t, err)

	assert.Contains(t, out, "Source: files")
	assert.Contains(t, out, "Databases: 3 (5 rows)")
	assert.Contains(t, out, "Functions: 2")
	assert.NotContains(t, out, "Database Size:")
}
