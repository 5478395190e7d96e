// Package catalog holds the reference catalog of survey databases, their
// table columns and the cross-match functions.
//
// A Store is built once through a Builder and is read-only afterwards, so it
// can be shared by any number of concurrent readers without locking.
package catalog

import (
	"database/sql"
	"slices"
)

// DatabaseEntry describes one catalog (survey database). Several rows may
// share a CatalogName with different remarks.
type DatabaseEntry struct {
	CatalogName string         `json:"catalog_name"`
	Summary     sql.NullString `json:"summary"`
	Remarks     sql.NullString `json:"remarks"`
}

// TableColumnEntry describes one column of one table. Rows are not
// guaranteed to be unique.
type TableColumnEntry struct {
	CatalogName string         `json:"catalog_name"`
	TableName   string         `json:"table_name"`
	ColumnName  string         `json:"column_name"`
	Description sql.NullString `json:"description"`
}

// FunctionEntry describes one cross-match function.
type FunctionEntry struct {
	FunctionName string         `json:"function_name"`
	Description  sql.NullString `json:"description"`
}

// Present wraps s as a present optional text value.
func Present(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

// Missing is an absent optional text value.
var Missing = sql.NullString{}

// Store is the immutable, in-memory catalog.
type Store struct {
	databases    []DatabaseEntry
	tableColumns []TableColumnEntry
	functions    []FunctionEntry
}

// Builder accumulates rows before a Store is frozen. Rows keep the order in
// which they were loaded.
type Builder struct {
	databases    []DatabaseEntry
	tableColumns []TableColumnEntry
	functions    []FunctionEntry
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// LoadDatabases appends database rows
func (b *Builder) LoadDatabases(rows []DatabaseEntry) *Builder {
	b.databases = append(b.databases, rows...)
	return b
}

// LoadTableColumns appends table-column rows
func (b *Builder) LoadTableColumns(rows []TableColumnEntry) *Builder {
	b.tableColumns = append(b.tableColumns, rows...)
	return b
}

// LoadFunctions appends function rows
func (b *Builder) LoadFunctions(rows []FunctionEntry) *Builder {
	b.functions = append(b.functions, rows...)
	return b
}

// Build freezes the loaded rows into a Store. The builder can be discarded
// afterwards; the Store does not share memory with it.
func (b *Builder) Build() *Store {
	return &Store{
		databases:    slices.Clone(b.databases),
		tableColumns: slices.Clone(b.tableColumns),
		functions:    slices.Clone(b.functions),
	}
}

// FilterDatabases returns the database rows matching pred, in load order.
func (s *Store) FilterDatabases(pred func(DatabaseEntry) bool) []DatabaseEntry {
	return filter(s.databases, pred)
}

// FilterTableColumns returns the table-column rows matching pred, in load order.
func (s *Store) FilterTableColumns(pred func(TableColumnEntry) bool) []TableColumnEntry {
	return filter(s.tableColumns, pred)
}

// AllDatabases returns every database row
func (s *Store) AllDatabases() []DatabaseEntry {
	return slices.Clone(s.databases)
}

// AllFunctions returns every function row
func (s *Store) AllFunctions() []FunctionEntry {
	return slices.Clone(s.functions)
}

// ByCatalog matches database rows of one catalog
func ByCatalog(name string) func(DatabaseEntry) bool {
	return func(e DatabaseEntry) bool {
		return e.CatalogName == name
	}
}

// InCatalog matches table-column rows of one catalog
func InCatalog(name string) func(TableColumnEntry) bool {
	return func(e TableColumnEntry) bool {
		return e.CatalogName == name
	}
}

// InTable matches table-column rows of one qualified table
func InTable(id TableIdentifier) func(TableColumnEntry) bool {
	return func(e TableColumnEntry) bool {
		return e.CatalogName == id.Catalog && e.TableName == id.Table
	}
}

func filter[T any](rows []T, pred func(T) bool) []T {
	var out []T

	for _, row := range rows {
		if pred == nil || pred(row) {
			out = append(out, row)
		}
	}

	return out
}
