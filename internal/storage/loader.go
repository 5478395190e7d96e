package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/kyleking/cas-sdss-mcp/internal/cache"
	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
	"github.com/kyleking/cas-sdss-mcp/internal/config"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
	"github.com/kyleking/cas-sdss-mcp/internal/logging"
)

// LoadOptions controls where the catalog is read from at startup
type LoadOptions struct {
	Data config.DataConfig
	// Cache holds decoded snapshots; nil disables snapshot caching
	Cache cache.Cache
	TTL   time.Duration
}

// LoadStore builds the immutable catalog store from the configured source.
// A cached snapshot is used when the source files are unchanged.
func LoadStore(ctx context.Context, opts LoadOptions) (*catalog.Store, error) {
	logger := logging.GetLogger().Named("storage")

	inputs, err := sourceFiles(&opts.Data)
	if err != nil {
		return nil, err
	}

	key := ""
	if opts.Cache != nil {
		if fp, err := cache.Fingerprint(inputs...); err == nil {
			key = "catalog:" + opts.Data.Source + ":" + fp
		}
	}

	if key != "" {
		pruneSnapshots(ctx, opts.Cache, logger)

		if store, ok := readSnapshot(ctx, opts.Cache, key, logger); ok {
			return store, nil
		}
	}

	var store *catalog.Store

	err = logging.LoggerMiddleware("load_catalog", func() error {
		var loadErr error
		store, loadErr = loadFromSource(ctx, &opts.Data)

		return loadErr
	})
	if err != nil {
		return nil, err
	}

	stats := store.Stats()
	logger.WithFields(map[string]any{
		"databases":     stats.DatabaseRows,
		"table_columns": stats.TableColumnRows,
		"functions":     stats.Functions,
	}).Info("Catalog loaded")

	if key != "" {
		writeSnapshot(ctx, opts.Cache, key, opts.TTL, store, logger)
	}

	return store, nil
}

// sourceFiles lists the files whose contents define the catalog
func sourceFiles(cfg *config.DataConfig) ([]string, error) {
	if UsesDuckDB(cfg) {
		if _, err := os.Stat(cfg.DuckDBPath); err != nil {
			return nil, errors.NewDatasetError(err, cfg.DuckDBPath).
				WithSuggestion("Run the import command to create the catalog database")
		}

		return []string{cfg.DuckDBPath}, nil
	}

	sources := SourcesFromConfig(cfg)
	for _, path := range sources.Paths() {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NewDatasetError(err, path)
		}
	}

	return sources.Paths(), nil
}

func loadFromSource(ctx context.Context, cfg *config.DataConfig) (*catalog.Store, error) {
	if UsesDuckDB(cfg) {
		repo, err := NewDuckDBRepositoryFromConfig(cfg)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open catalog database")
		}
		defer repo.Close()

		if err := repo.Initialize(ctx); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to initialize catalog database")
		}

		return repo.LoadStore(ctx)
	}

	repo, err := NewDuckDBRepository("")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open in-memory database")
	}
	defer repo.Close()

	if err := repo.Initialize(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to initialize in-memory database")
	}

	if _, err := repo.ImportSources(ctx, SourcesFromConfig(cfg)); err != nil {
		return nil, err
	}

	return repo.LoadStore(ctx)
}

// pruneSnapshots drops expired snapshots, including those left behind by older fingerprints
func pruneSnapshots(ctx context.Context, c cache.Cache, logger *logging.Logger) {
	removed, err := c.Cleanup(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to prune catalog snapshots")
		return
	}

	if removed > 0 {
		logger.WithField("removed", removed).Debug("Pruned expired catalog snapshots")
	}
}

func readSnapshot(ctx context.Context, c cache.Cache, key string, logger *logging.Logger) (*catalog.Store, bool) {
	data, err := c.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, cache.ErrMiss) {
			logger.WithError(err).Warn("Failed to read catalog snapshot")
		}

		return nil, false
	}

	var snap catalog.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.WithError(err).Warn("Discarding unreadable catalog snapshot")
		_ = c.Delete(ctx, key)

		return nil, false
	}

	logger.Debug("Catalog loaded from snapshot cache")

	return catalog.FromSnapshot(snap), true
}

func writeSnapshot(
	ctx context.Context,
	c cache.Cache,
	key string,
	ttl time.Duration,
	store *catalog.Store,
	logger *logging.Logger,
) {
	data, err := json.Marshal(store.Snapshot())
	if err != nil {
		logger.WithError(err).Warn("Failed to encode catalog snapshot")
		return
	}

	if err := c.Set(ctx, key, data, ttl); err != nil {
		logger.WithError(fmt.Errorf("store snapshot: %w", err)).Warn("Failed to cache catalog snapshot")
	}
}
