package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// NewTestDB creates a temporary file-backed test database with auto-cleanup.
// Returns the repository and a cleanup function that should be deferred.
func NewTestDB(t *testing.T) (*DuckDBRepository, func()) {
	t.Helper()

	repo, err := NewDuckDBRepository(filepath.Join(t.TempDir(), "test.duckdb"))
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	if err := repo.Initialize(context.Background()); err != nil {
		repo.Close()
		t.Fatalf("failed to initialize test repository: %v", err)
	}

	cleanup := func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close test repository: %v", err)
		}
	}

	return repo, cleanup
}

// NewTestDBWithData creates a temporary test database imported from sources.
// Returns the repository and a cleanup function that should be deferred.
func NewTestDBWithData(t *testing.T, sources Sources) (*DuckDBRepository, func()) {
	t.Helper()

	repo, cleanup := NewTestDB(t)

	if _, err := repo.ImportSources(context.Background(), sources); err != nil {
		cleanup()
		t.Fatalf("failed to import test sources: %v", err)
	}

	return repo, cleanup
}
