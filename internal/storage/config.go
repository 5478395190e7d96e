package storage

import (
	"strings"

	"github.com/kyleking/cas-sdss-mcp/internal/config"
)

// NewDuckDBRepositoryFromConfig opens the persistent catalog database named by the data config
func NewDuckDBRepositoryFromConfig(cfg *config.DataConfig) (*DuckDBRepository, error) {
	return NewDuckDBRepository(cfg.DuckDBPath)
}

// SourcesFromConfig resolves the three dataset files against the data directory
func SourcesFromConfig(cfg *config.DataConfig) Sources {
	return Sources{
		Databases:    cfg.DataPath(cfg.DatabasesFile),
		TableColumns: cfg.DataPath(cfg.TablesFile),
		Functions:    cfg.DataPath(cfg.FunctionsFile),
	}
}

// UsesDuckDB reports whether the catalog is read from an imported DuckDB file
func UsesDuckDB(cfg *config.DataConfig) bool {
	return strings.EqualFold(cfg.Source, "duckdb")
}
