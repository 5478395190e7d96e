package query

import (
	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
)

// Engine defines the catalog lookup operations
type Engine interface {
	ListDatabases() []formatter.Pair
	DescribeDatabase(name string) (formatter.Pair, error)
	ListTables(databaseName string) []string
	ListColumns(tableIdentifier string) ([]formatter.Pair, error)
	ListFunctions() []formatter.Pair
}

// CatalogEngine answers lookups from an immutable catalog store. Every
// operation is a pure read; failures are *errors.Error values of type
// ErrTypeFormat or ErrTypeNotFound whose Message is the user-facing text.
type CatalogEngine struct {
	store *catalog.Store
}

// NewCatalogEngine creates a new engine over store
func NewCatalogEngine(store *catalog.Store) *CatalogEngine {
	return &CatalogEngine{store: store}
}

// ListDatabases returns (catalog_name, summary) for every database row in load order
func (e *CatalogEngine) ListDatabases() []formatter.Pair {
	rows := e.store.AllDatabases()
	out := make([]formatter.Pair, 0, len(rows))

	for _, row := range rows {
		out = append(out, formatter.NewPair(row.CatalogName, formatter.Text(row.Summary)))
	}

	return out
}

// DescribeDatabase returns the first distinct (summary, remarks) of a catalog
func (e *CatalogEngine) DescribeDatabase(name string) (formatter.Pair, error) {
	rows := e.store.FilterDatabases(catalog.ByCatalog(name))

	descriptions := make([]formatter.Pair, 0, len(rows))
	for _, row := range rows {
		descriptions = append(descriptions, formatter.NewPair(formatter.Text(row.Summary), formatter.Text(row.Remarks)))
	}

	descriptions = formatter.Dedupe(descriptions, identity)
	if len(descriptions) == 0 {
		return formatter.Pair{}, errors.Newf(errors.ErrTypeNotFound, "Database '%s' not found.", name)
	}

	return descriptions[0], nil
}

// ListTables returns the distinct "<catalog>.<table>" identifiers of a
// database in first-seen order. An unknown database yields an empty list.
func (e *CatalogEngine) ListTables(databaseName string) []string {
	rows := e.store.FilterTableColumns(catalog.InCatalog(databaseName))

	ids := make([]catalog.TableIdentifier, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, catalog.TableIdentifier{Catalog: row.CatalogName, Table: row.TableName})
	}

	ids = formatter.Dedupe(ids, func(id catalog.TableIdentifier) catalog.TableIdentifier { return id })

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}

	return out
}

// ListColumns returns (column_name, description) for every stored row of the
// table, duplicates included, in load order.
func (e *CatalogEngine) ListColumns(tableIdentifier string) ([]formatter.Pair, error) {
	id, err := catalog.ParseTableIdentifier(tableIdentifier)
	if err != nil {
		return nil, err
	}

	rows := e.store.FilterTableColumns(catalog.InTable(id))
	if len(rows) == 0 {
		return nil, errors.Newf(errors.ErrTypeNotFound, "Table '%s' not found.", tableIdentifier)
	}

	out := make([]formatter.Pair, 0, len(rows))
	for _, row := range rows {
		out = append(out, formatter.NewPair(row.ColumnName, formatter.Text(row.Description)))
	}

	return out, nil
}

// ListFunctions returns (function_name, description) for every function row
func (e *CatalogEngine) ListFunctions() []formatter.Pair {
	rows := e.store.AllFunctions()
	out := make([]formatter.Pair, 0, len(rows))

	for _, row := range rows {
		out = append(out, formatter.NewPair(row.FunctionName, formatter.Text(row.Description)))
	}

	return out
}

func identity(p formatter.Pair) formatter.Pair { return p }
