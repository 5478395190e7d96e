package storage

import (
	"context"
	"time"

	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
)

// Repository defines the interface for catalog dataset storage
type Repository interface {
	Initialize(ctx context.Context) error
	ImportSources(ctx context.Context, sources Sources) (*ImportResult, error)
	LoadDatabases(ctx context.Context) ([]catalog.DatabaseEntry, error)
	LoadTableColumns(ctx context.Context) ([]catalog.TableColumnEntry, error)
	LoadFunctions(ctx context.Context) ([]catalog.FunctionEntry, error)
	GetStats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	SchemaStatus(ctx context.Context) ([]MigrationStatus, error)
	ResetSchema(ctx context.Context) error
	Close() error
}

// Sources names the three dataset files that make up a catalog
type Sources struct {
	Databases    string `json:"databases"`
	TableColumns string `json:"table_columns"`
	Functions    string `json:"functions"`
}

// Paths returns the source files in import order
func (s Sources) Paths() []string {
	return []string{s.Databases, s.TableColumns, s.Functions}
}

// ImportResult reports the rows written per dataset
type ImportResult struct {
	DatabaseRows    int           `json:"database_rows"`
	TableColumnRows int           `json:"table_column_rows"`
	FunctionRows    int           `json:"function_rows"`
	Duration        time.Duration `json:"duration"`
}

// Stats represents stored catalog statistics
type Stats struct {
	DatabaseRows    int       `json:"database_rows"`
	TableColumnRows int       `json:"table_column_rows"`
	FunctionRows    int       `json:"function_rows"`
	Catalogs        int       `json:"catalogs"`
	Tables          int       `json:"tables"`
	LastImportTime  time.Time `json:"last_import_time"`
	DatabaseSizeMB  float64   `json:"database_size_mb"`
}
