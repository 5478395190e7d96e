package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache defines the interface for local file caching operations
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// Entry represents the metadata stored next to a cached payload
type Entry struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int64     `json:"size"`
}

// Stats represents cache statistics
type Stats struct {
	TotalEntries int64   `json:"total_entries"`
	TotalSize    int64   `json:"total_size"`
	HitRate      float64 `json:"hit_rate"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
}

// FileCache implements the Cache interface using the filesystem
type FileCache struct {
	directory  string
	maxBytes   int64
	defaultTTL time.Duration
	now        func() time.Time

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewFileCache creates a new file-based cache rooted at directory
func NewFileCache(directory string, maxSizeMB int, defaultTTL time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileCache{
		directory:  directory,
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Directory returns the cache root
func (c *FileCache) Directory() string {
	return c.directory
}

// Get retrieves data from cache
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.readEntry(key)
	if err != nil {
		c.misses++
		return nil, err
	}

	if c.now().After(entry.ExpiresAt) {
		c.misses++
		c.remove(key)

		return nil, fmt.Errorf("%w: entry expired", ErrMiss)
	}

	data, err := os.ReadFile(c.dataPath(key))
	if err != nil {
		c.misses++
		return nil, fmt.Errorf("%w: %v", ErrMiss, err)
	}

	c.hits++

	return data, nil
}

// Set stores data in cache with TTL; a zero ttl uses the default
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := Entry{
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Size:      int64(len(data)),
	}

	if err := c.enforceSize(entry.Size); err != nil {
		return fmt.Errorf("failed to enforce cache size: %w", err)
	}

	if err := os.WriteFile(c.dataPath(key), data, 0600); err != nil {
		return fmt.Errorf("failed to write cache data: %w", err)
	}

	meta, err := json.Marshal(entry)
	if err != nil {
		c.remove(key)
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}

	if err := os.WriteFile(c.metaPath(key), meta, 0600); err != nil {
		c.remove(key)
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}

	return nil
}

// Delete removes an entry from cache
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)

	return nil
}

// Clear removes all entries from cache and resets statistics
func (c *FileCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && isCacheFile(entry.Name()) {
			_ = os.Remove(filepath.Join(c.directory, entry.Name()))
		}
	}

	c.hits, c.misses = 0, 0

	return nil
}

// Size returns the total size of cached data
func (c *FileCache) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calculateSize()
}

// Cleanup removes expired entries and reports how many were removed
func (c *FileCache) Cleanup(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	metas, err := c.listEntries()
	if err != nil {
		return 0, err
	}

	now := c.now()
	removed := 0

	for _, meta := range metas {
		if now.After(meta.entry.ExpiresAt) {
			_ = os.Remove(filepath.Join(c.directory, meta.hash+".data"))
			_ = os.Remove(filepath.Join(c.directory, meta.hash+".meta"))
			removed++
		}
	}

	return removed, nil
}

// GetStats returns cache statistics
func (c *FileCache) GetStats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	metas, err := c.listEntries()
	if err != nil {
		return nil, err
	}

	size, err := c.calculateSize()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalEntries: int64(len(metas)),
		TotalSize:    size,
		Hits:         c.hits,
		Misses:       c.misses,
	}

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats, nil
}

type storedEntry struct {
	hash    string
	entry   Entry
	modTime time.Time
}

// listEntries reads every parseable metadata file; callers hold the lock
func (c *FileCache) listEntries() ([]storedEntry, error) {
	dirEntries, err := os.ReadDir(c.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var out []storedEntry

	for _, d := range dirEntries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(c.directory, d.Name()))
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}

		info, err := d.Info()
		if err != nil {
			continue
		}

		out = append(out, storedEntry{
			hash:    strings.TrimSuffix(d.Name(), ".meta"),
			entry:   entry,
			modTime: info.ModTime(),
		})
	}

	return out, nil
}

func (c *FileCache) readEntry(key string) (*Entry, error) {
	data, err := os.ReadFile(c.metaPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: key not found", ErrMiss)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse cache metadata: %w", err)
	}

	return &entry, nil
}

func (c *FileCache) remove(key string) {
	_ = os.Remove(c.dataPath(key))
	_ = os.Remove(c.metaPath(key))
}

func (c *FileCache) dataPath(key string) string {
	return filepath.Join(c.directory, hashKey(key)+".data")
}

func (c *FileCache) metaPath(key string) string {
	return filepath.Join(c.directory, hashKey(key)+".meta")
}

// hashKey creates a safe filename from a cache key
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func isCacheFile(name string) bool {
	return strings.HasSuffix(name, ".data") || strings.HasSuffix(name, ".meta")
}

// enforceSize evicts the oldest entries until newEntrySize fits; callers hold the lock
func (c *FileCache) enforceSize(newEntrySize int64) error {
	if c.maxBytes <= 0 {
		return nil
	}

	currentSize, err := c.calculateSize()
	if err != nil {
		return err
	}

	if currentSize+newEntrySize <= c.maxBytes {
		return nil
	}

	metas, err := c.listEntries()
	if err != nil {
		return err
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].modTime.Before(metas[j].modTime)
	})

	spaceNeeded := currentSize + newEntrySize - c.maxBytes

	var spaceFreed int64

	for _, meta := range metas {
		if spaceFreed >= spaceNeeded {
			break
		}

		_ = os.Remove(filepath.Join(c.directory, meta.hash+".data"))
		_ = os.Remove(filepath.Join(c.directory, meta.hash+".meta"))
		spaceFreed += meta.entry.Size
	}

	return nil
}

// calculateSize sums the payload files; callers hold the lock
func (c *FileCache) calculateSize() (int64, error) {
	var totalSize int64

	err := filepath.WalkDir(c.directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.HasSuffix(path, ".data") {
			info, err := d.Info()
			if err != nil {
				return err
			}

			totalSize += info.Size()
		}

		return nil
	})

	return totalSize, err
}

// Fingerprint derives a cache key from the path, size and modification time of each file.
// A missing file is an error so callers fall through to a load that reports it.
func Fingerprint(paths ...string) (string, error) {
	hasher := sha256.New()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}

		fmt.Fprintf(hasher, "%s|%d|%d\n", abs, info.Size(), info.ModTime().UnixNano())
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
