package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
)

// DuckDBRepository implements the Repository interface using DuckDB
type DuckDBRepository struct {
	db   *sql.DB
	path string
}

// NewDuckDBRepository opens a DuckDB database at dbPath, or an in-memory one when dbPath is empty
func NewDuckDBRepository(dbPath string) (*DuckDBRepository, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DuckDBRepository{db: db, path: dbPath}, nil
}

// Initialize creates the database schema using migrations
func (r *DuckDBRepository) Initialize(ctx context.Context) error {
	return NewMigrationManager(r.db).MigrateUp(ctx)
}

// SchemaStatus lists every known migration in version order with whether it is applied
func (r *DuckDBRepository) SchemaStatus(ctx context.Context) ([]MigrationStatus, error) {
	status, err := NewMigrationManager(r.db).GetMigrationStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read schema status")
	}

	list := make([]MigrationStatus, 0, len(status))
	for _, s := range status {
		list = append(list, s)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Version < list[j].Version })

	return list, nil
}

// ResetSchema rolls every migration back and reapplies them, dropping all imported rows
func (r *DuckDBRepository) ResetSchema(ctx context.Context) error {
	manager := NewMigrationManager(r.db)

	if err := manager.InitializeMigrationTable(ctx); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to reset schema")
	}

	if err := manager.MigrateDown(ctx, 0); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to roll back schema")
	}

	if err := manager.MigrateUp(ctx); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to reapply schema")
	}

	return nil
}

// datasetTable maps a dataset to its table and the insert projection over a file scan
type datasetTable struct {
	name    string
	table   string
	columns string
	project string
}

var (
	databasesTable = datasetTable{
		name:    "databases",
		table:   "catalog_databases",
		columns: "catalog_name, summary, remarks",
		project: "COALESCE(CAST(catalog_name AS VARCHAR), ''), CAST(summary AS VARCHAR), CAST(remarks AS VARCHAR)",
	}
	tableColumnsTable = datasetTable{
		name:    "table_columns",
		table:   "catalog_table_columns",
		columns: "catalog_name, table_name, column_name, description",
		project: "COALESCE(CAST(catalog_name AS VARCHAR), ''), COALESCE(CAST(table_name AS VARCHAR), ''), " +
			"COALESCE(CAST(column_name AS VARCHAR), ''), CAST(description AS VARCHAR)",
	}
	functionsTable = datasetTable{
		name:    "functions",
		table:   "catalog_functions",
		columns: "function_name, description",
		project: "COALESCE(CAST(function_name AS VARCHAR), ''), CAST(description AS VARCHAR)",
	}
)

// ImportSources replaces the stored catalog with the contents of the three source files
func (r *DuckDBRepository) ImportSources(ctx context.Context, sources Sources) (*ImportResult, error) {
	start := time.Now()

	for _, path := range sources.Paths() {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NewDatasetError(err, path)
		}
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// Sequence ordinals follow file order only on a single thread
	if _, err := conn.ExecContext(ctx, "SET threads TO 1"); err != nil {
		return nil, fmt.Errorf("failed to configure import: %w", err)
	}
	defer func() { _, _ = conn.ExecContext(context.Background(), "RESET threads") }()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	result := &ImportResult{}

	imports := []struct {
		dataset datasetTable
		path    string
		rows    *int
	}{
		{databasesTable, sources.Databases, &result.DatabaseRows},
		{tableColumnsTable, sources.TableColumns, &result.TableColumnRows},
		{functionsTable, sources.Functions, &result.FunctionRows},
	}

	for _, imp := range imports {
		n, err := importDataset(ctx, tx, imp.dataset, imp.path)
		if err != nil {
			return nil, err
		}

		*imp.rows = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	result.Duration = time.Since(start)

	return result, nil
}

func importDataset(ctx context.Context, tx *sql.Tx, dataset datasetTable, path string) (int, error) {
	scan, err := scanExpression(path)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+dataset.table); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", dataset.table, err)
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		dataset.table, dataset.columns, dataset.project, scan)

	res, err := tx.ExecContext(ctx, insertSQL)
	if err != nil {
		return 0, errors.NewDatasetError(err, path)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count imported rows: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_imports (dataset, source_path, row_count, imported_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (dataset) DO UPDATE SET
			source_path = excluded.source_path,
			row_count = excluded.row_count,
			imported_at = excluded.imported_at`,
		dataset.name, path, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to record import of %s: %w", dataset.name, err)
	}

	return int(rows), nil
}

// scanExpression returns the DuckDB table function reading path, chosen by extension
func scanExpression(path string) (string, error) {
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet(" + literal + ")", nil
	case ".json", ".jsonl", ".ndjson":
		return "read_json_auto(" + literal + ")", nil
	case ".csv", ".tsv":
		return "read_csv_auto(" + literal + ", header = true)", nil
	default:
		return "", errors.Newf(errors.ErrTypeValidation, "unsupported dataset format: %s", path).
			WithSuggestion("Use .parquet, .json, .jsonl, .ndjson, .csv or .tsv files")
	}
}

// LoadDatabases returns the stored database rows in load order
func (r *DuckDBRepository) LoadDatabases(ctx context.Context) ([]catalog.DatabaseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT catalog_name, summary, remarks FROM catalog_databases ORDER BY ordinal")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to query databases")
	}
	defer rows.Close()

	var entries []catalog.DatabaseEntry

	for rows.Next() {
		var entry catalog.DatabaseEntry
		if err := rows.Scan(&entry.CatalogName, &entry.Summary, &entry.Remarks); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan database row")
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LoadTableColumns returns the stored table-column rows in load order
func (r *DuckDBRepository) LoadTableColumns(ctx context.Context) ([]catalog.TableColumnEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT catalog_name, table_name, column_name, description FROM catalog_table_columns ORDER BY ordinal")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to query table columns")
	}
	defer rows.Close()

	var entries []catalog.TableColumnEntry

	for rows.Next() {
		var entry catalog.TableColumnEntry
		if err := rows.Scan(&entry.CatalogName, &entry.TableName, &entry.ColumnName, &entry.Description); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan table column row")
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LoadFunctions returns the stored function rows in load order
func (r *DuckDBRepository) LoadFunctions(ctx context.Context) ([]catalog.FunctionEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT function_name, description FROM catalog_functions ORDER BY ordinal")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to query functions")
	}
	defer rows.Close()

	var entries []catalog.FunctionEntry

	for rows.Next() {
		var entry catalog.FunctionEntry
		if err := rows.Scan(&entry.FunctionName, &entry.Description); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan function row")
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LoadStore reads every stored row into an immutable catalog store
func (r *DuckDBRepository) LoadStore(ctx context.Context) (*catalog.Store, error) {
	databases, err := r.LoadDatabases(ctx)
	if err != nil {
		return nil, err
	}

	tableColumns, err := r.LoadTableColumns(ctx)
	if err != nil {
		return nil, err
	}

	functions, err := r.LoadFunctions(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.NewBuilder().
		LoadDatabases(databases).
		LoadTableColumns(tableColumns).
		LoadFunctions(functions).
		Build(), nil
}

// GetStats returns row counts and import metadata
func (r *DuckDBRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query  string
		target *int
	}{
		{"SELECT COUNT(*) FROM catalog_databases", &stats.DatabaseRows},
		{"SELECT COUNT(*) FROM catalog_table_columns", &stats.TableColumnRows},
		{"SELECT COUNT(*) FROM catalog_functions", &stats.FunctionRows},
		{"SELECT COUNT(DISTINCT catalog_name) FROM catalog_databases", &stats.Catalogs},
		{"SELECT COUNT(*) FROM (SELECT DISTINCT catalog_name, table_name FROM catalog_table_columns)", &stats.Tables},
	}

	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.target); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to get catalog statistics")
		}
	}

	var lastImport sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(imported_at) FROM catalog_imports").Scan(&lastImport); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to get last import time")
	}

	if lastImport.Valid {
		stats.LastImportTime = lastImport.Time
	}

	if r.path != "" {
		if info, err := os.Stat(r.path); err == nil {
			stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
		}
	}

	return stats, nil
}

// Clear removes all catalog rows and import history
func (r *DuckDBRepository) Clear(ctx context.Context) error {
	for _, table := range []string{"catalog_imports", "catalog_functions", "catalog_table_columns", "catalog_databases"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, errors.ErrTypeDatabase, "failed to clear %s", table)
		}
	}

	return nil
}

// Path returns the database file path, empty for in-memory databases
func (r *DuckDBRepository) Path() string {
	return r.path
}

// Close closes the database connection
func (r *DuckDBRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}

	return nil
}
