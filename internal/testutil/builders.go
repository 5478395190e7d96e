package testutil

import (
	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
)

// DatabaseOption is a functional option for configuring test database rows
type DatabaseOption func(*catalog.DatabaseEntry)

// WithSummary sets the database summary
func WithSummary(summary string) DatabaseOption {
	return func(e *catalog.DatabaseEntry) {
		e.Summary = catalog.Present(summary)
	}
}

// WithRemarks sets the database remarks
func WithRemarks(remarks string) DatabaseOption {
	return func(e *catalog.DatabaseEntry) {
		e.Remarks = catalog.Present(remarks)
	}
}

// NewTestDatabase creates a database row with absent summary and remarks
// unless options set them
func NewTestDatabase(name string, opts ...DatabaseOption) catalog.DatabaseEntry {
	entry := catalog.DatabaseEntry{CatalogName: name}

	for _, opt := range opts {
		opt(&entry)
	}

	return entry
}

// NewTestColumn creates a table-column row. An empty description is stored as absent.
func NewTestColumn(catalogName, table, column, description string) catalog.TableColumnEntry {
	entry := catalog.TableColumnEntry{
		CatalogName: catalogName,
		TableName:   table,
		ColumnName:  column,
	}

	if description != "" {
		entry.Description = catalog.Present(description)
	}

	return entry
}

// NewTestFunction creates a function row. An empty description is stored as absent.
func NewTestFunction(name, description string) catalog.FunctionEntry {
	entry := catalog.FunctionEntry{FunctionName: name}

	if description != "" {
		entry.Description = catalog.Present(description)
	}

	return entry
}

// SampleDatabases returns the database rows of the shared fixture
func SampleDatabases() []catalog.DatabaseEntry {
	return []catalog.DatabaseEntry{
		NewTestDatabase(TestCatalog, WithSummary(TestCatalogSummary)),
		NewTestDatabase(TestSecondCatalog, WithSummary("Mapping nearby galaxies"), WithRemarks("DR17 release")),
		NewTestDatabase(TestSecondCatalog, WithSummary("Mapping nearby galaxies"), WithRemarks("DR17 release")),
		NewTestDatabase(TestSecondCatalog, WithSummary("Mapping nearby galaxies"), WithRemarks("Superseded")),
		NewTestDatabase("EmptyDB"),
	}
}

// SampleTableColumns returns the table-column rows of the shared fixture,
// including a duplicated column row
func SampleTableColumns() []catalog.TableColumnEntry {
	return []catalog.TableColumnEntry{
		NewTestColumn(TestCatalog, TestTable, "ra", "right ascension"),
		NewTestColumn(TestCatalog, TestTable, "dec", "declination"),
		NewTestColumn(TestCatalog, "SpecObj", "z", "redshift"),
		NewTestColumn(TestCatalog, TestTable, "dec", "declination"),
		NewTestColumn(TestSecondCatalog, "mangaDrpAll", "plateifu", ""),
	}
}

// SampleFunctions returns the function rows of the shared fixture
func SampleFunctions() []catalog.FunctionEntry {
	return []catalog.FunctionEntry{
		NewTestFunction(TestFunction, "Returns nearby objects"),
		NewTestFunction("fDistanceArcMinEq", ""),
	}
}

// NewSampleStore builds a Store from the shared fixture
func NewSampleStore() *catalog.Store {
	return catalog.NewBuilder().
		LoadDatabases(SampleDatabases()).
		LoadTableColumns(SampleTableColumns()).
		LoadFunctions(SampleFunctions()).
		Build()
}
