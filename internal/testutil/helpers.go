package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// RunConcurrent executes the given function concurrently n times.
// Waits for all goroutines to complete before returning.
// Any panics are captured and reported as test failures.
func RunConcurrent(t *testing.T, n int, fn func(workerID int)) {
	t.Helper()

	var wg sync.WaitGroup
	wg.Add(n)

	for i := range n {
		go func(workerID int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("worker %d panicked: %v", workerID, r)
				}
			}()
			fn(workerID)
		}(i)
	}

	wg.Wait()
}

// Dataset file names used by fixtures
const (
	DatabasesFile = "database_names.json"
	TablesFile    = "tbls_cols.json"
	FunctionsFile = "x_match_fns.json"
)

// Newline-delimited JSON renditions of the shared fixture. Absent values are nulls.
const (
	databasesJSONL = `{"catalog_name": "SDSS17", "summary": "Sloan survey", "remarks": null}
{"catalog_name": "MANGA", "summary": "Mapping nearby galaxies", "remarks": "DR17 release"}
{"catalog_name": "MANGA", "summary": "Mapping nearby galaxies", "remarks": "DR17 release"}
{"catalog_name": "MANGA", "summary": "Mapping nearby galaxies", "remarks": "Superseded"}
{"catalog_name": "EmptyDB", "summary": null, "remarks": null}
`
	tablesJSONL = `{"catalog_name": "SDSS17", "table_name": "PhotoObj", "column_name": "ra", "description": "right ascension"}
{"catalog_name": "SDSS17", "table_name": "PhotoObj", "column_name": "dec", "description": "declination"}
{"catalog_name": "SDSS17", "table_name": "SpecObj", "column_name": "z", "description": "redshift"}
{"catalog_name": "SDSS17", "table_name": "PhotoObj", "column_name": "dec", "description": "declination"}
{"catalog_name": "MANGA", "table_name": "mangaDrpAll", "column_name": "plateifu", "description": null}
`
	functionsJSONL = `{"function_name": "fGetNearbyObjEq", "description": "Returns nearby objects"}
{"function_name": "fDistanceArcMinEq", "description": null}
`
)

// WriteFixtureFiles writes the shared fixture as JSON datasets into a fresh
// temporary directory and returns it
func WriteFixtureFiles(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		DatabasesFile: databasesJSONL,
		TablesFile:    tablesJSONL,
		FunctionsFile: functionsJSONL,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}

	return dir
}
