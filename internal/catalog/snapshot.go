package catalog

import "slices"

// Snapshot is the serializable form of a Store
type Snapshot struct {
	Databases    []DatabaseEntry    `json:"databases"`
	TableColumns []TableColumnEntry `json:"table_columns"`
	Functions    []FunctionEntry    `json:"functions"`
}

// Stats summarizes the loaded catalog
type Stats struct {
	DatabaseRows    int `json:"database_rows"`
	Catalogs        int `json:"catalogs"`
	Tables          int `json:"tables"`
	TableColumnRows int `json:"table_column_rows"`
	Functions       int `json:"functions"`
}

// Snapshot copies the store contents
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Databases:    slices.Clone(s.databases),
		TableColumns: slices.Clone(s.tableColumns),
		Functions:    slices.Clone(s.functions),
	}
}

// FromSnapshot rebuilds a Store from a snapshot
func FromSnapshot(snap Snapshot) *Store {
	return NewBuilder().
		LoadDatabases(snap.Databases).
		LoadTableColumns(snap.TableColumns).
		LoadFunctions(snap.Functions).
		Build()
}

// Stats counts rows, distinct catalogs and distinct qualified tables
func (s *Store) Stats() Stats {
	catalogs := make(map[string]struct{})
	for _, db := range s.databases {
		catalogs[db.CatalogName] = struct{}{}
	}

	tables := make(map[TableIdentifier]struct{})
	for _, col := range s.tableColumns {
		tables[TableIdentifier{Catalog: col.CatalogName, Table: col.TableName}] = struct{}{}
	}

	return Stats{
		DatabaseRows:    len(s.databases),
		Catalogs:        len(catalogs),
		Tables:          len(tables),
		TableColumnRows: len(s.tableColumns),
		Functions:       len(s.functions),
	}
}
