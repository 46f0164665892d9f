package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const fileExt = ".json"

// FileCache implements a file-based cache with TTL
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// cacheEntry represents a cached item with expiration
type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileCache creates a new file cache
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	return &FileCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// DefaultCacheDir returns the default cache directory
func DefaultCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "efa")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "efa-cache")
	}

	return filepath.Join(home, ".cache", "efa")
}

// Dir returns the directory entries are stored in
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+fileExt)
}

// readEntry loads an entry and removes it when it is corrupt or expired
func (c *FileCache) readEntry(filename string) (cacheEntry, bool) {
	// #nosec G304 -- filename is a hash inside the cache directory
	data, err := os.ReadFile(filename)
	if err != nil {
		return cacheEntry{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(filename)
		return cacheEntry{}, false
	}

	if c.now().After(entry.ExpiresAt) {
		_ = os.Remove(filename)
		return cacheEntry{}, false
	}

	return entry, true
}

// Get retrieves a value from the cache
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool) {
	entry, ok := c.readEntry(c.path(key))
	if !ok {
		return nil, false
	}
	return entry.Data, true
}

// Set stores a value in the cache. The entry is written to a temporary
// file first so concurrent readers never see a partial entry.
func (c *FileCache) Set(_ context.Context, key string, value []byte) error {
	data, err := json.Marshal(cacheEntry{
		Data:      value,
		ExpiresAt: c.now().Add(c.ttl),
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), c.path(key))
}

// Clear removes all cache entries
func (c *FileCache) Clear() error {
	return c.walk(func(filename string) {
		_ = os.Remove(filename)
	})
}

// Cleanup removes expired entries
func (c *FileCache) Cleanup() error {
	return c.walk(func(filename string) {
		c.readEntry(filename)
	})
}

func (c *FileCache) walk(fn func(filename string)) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		fn(filepath.Join(c.dir, entry.Name()))
	}

	return nil
}
