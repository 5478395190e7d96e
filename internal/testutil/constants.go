// Package testutil provides common constants and utilities for tests
package testutil

import "time"

const (
	// TestTimeout is the default timeout for test operations
	TestTimeout = 30 * time.Second

	// ShortTestTimeout is a shorter timeout for quick operations
	ShortTestTimeout = 5 * time.Second

	// TestConcurrentReaders is the number of goroutines used by concurrency tests
	TestConcurrentReaders = 16
)

// Common catalog fixture values
const (
	// TestCatalog is the catalog used by most fixtures
	TestCatalog = "SDSS17"

	// TestCatalogSummary is the summary of TestCatalog
	TestCatalogSummary = "Sloan survey"

	// TestTable is a table of TestCatalog
	TestTable = "PhotoObj"

	// TestQualifiedTable is TestTable qualified by TestCatalog
	TestQualifiedTable = TestCatalog + "." + TestTable

	// TestSecondCatalog is a catalog with remarks and a duplicated summary row
	TestSecondCatalog = "MANGA"

	// TestFunction is a cross-match function name
	TestFunction = "fGetNearbyObjEq"
)
