package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kyleking/cas-sdss-mcp/internal/cache"
	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/logging"
	"github.com/kyleking/cas-sdss-mcp/internal/storage"
)

const snapshotCacheSizeMB = 256

// initializeStorage opens the catalog repository for the configured source.
// In files mode the datasets are imported into an in-memory database.
func initializeStorage(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	path := ""
	if storage.UsesDuckDB(&cfg.Data) {
		path = cfg.Data.DuckDBPath
	}

	repo, err := storage.NewDuckDBRepository(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	if err := repo.Initialize(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	if path == "" {
		if _, err := repo.ImportSources(ctx, storage.SourcesFromConfig(&cfg.Data)); err != nil {
			repo.Close()
			return nil, err
		}
	}

	return repo, nil
}

// openSnapshotCache returns the snapshot cache, or nil when caching is off or unusable
func openSnapshotCache(cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}

	c, err := cache.NewFileCache(cfg.Cache.Directory, snapshotCacheSizeMB, cacheTTL(cfg))
	if err != nil {
		logging.WithError(err).Warn("Snapshot cache unavailable")
		return nil
	}

	return c
}

func cacheTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Cache.TTLHours) * time.Hour
}

// loadCatalog builds the catalog store, consulting the snapshot cache when enabled
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Store, error) {
	return storage.LoadStore(ctx, storage.LoadOptions{
		Data:  cfg.Data,
		Cache: openSnapshotCache(cfg),
		TTL:   cacheTTL(cfg),
	})
}
