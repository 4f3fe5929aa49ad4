// Package cache persists per-file analysis results on disk, keyed by path
// and validated by a BLAKE3 hash of the file content.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
)

var _ carbon.ResultCache = (*Cache)(nil)

// Cache provides file-based caching for carbon analysis results.
type Cache struct {
	dir         string
	ttl         time.Duration
	enabled     bool
	fingerprint string
	now         func() time.Time
}

// Entry is a cached analysis result as stored on disk.
type Entry struct {
	Path        string         `json:"path"`
	Hash        string         `json:"hash"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Result      *carbon.Result `json:"result"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithFingerprint ties entries to the analyzer settings that produced them.
// Entries written under a different fingerprint are treated as misses.
func WithFingerprint(fp string) Option {
	return func(c *Cache) {
		c.fingerprint = fp
	}
}

// New creates a new cache instance. A disabled cache never stores anything.
func New(dir string, ttlHours int, enabled bool, opts ...Option) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	c := &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Enabled reports whether the cache stores results.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached result for path if the stored content hash matches
// content, the fingerprint matches, and the entry has not expired.
func (c *Cache) Get(path string, content []byte) (*carbon.Result, bool) {
	if !c.enabled {
		return nil, false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Result == nil {
		return nil, false
	}
	if entry.Hash != HashBytes(content) || entry.Fingerprint != c.fingerprint {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl {
		os.Remove(file)
		return nil, false
	}

	return entry.Result, true
}

// Put stores result for path along with the hash of content.
func (c *Cache) Put(path string, content []byte, result *carbon.Result) error {
	if !c.enabled {
		return nil
	}
	if result == nil {
		return errors.New("cache: nil result")
	}

	entry := Entry{
		Path:        path,
		Hash:        HashBytes(content),
		Fingerprint: c.fingerprint,
		Timestamp:   c.now(),
		Result:      result,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// Entries are replaced by rename.
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(path))
}

// Invalidate removes the entry for path.
func (c *Cache) Invalidate(path string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a path to the entry file name.
func (c *Cache) keyPath(path string) string {
	hash := blake3.Sum256([]byte(path))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:16])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
	}

	if !oldest.IsZero() {
		stats.OldestAge = c.now().Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = c.now().Sub(newest)
	}
	return stats, nil
}
