package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when an entry exists but is older
// than the TTL. The stale bytes are still returned so callers can fall back
// to them when a refetch fails.
var ErrExpired = errors.New("cache entry expired")

// Cache stores response bodies as files named by the SHA-256 of their key.
//
// Entries expire by file modification time; a TTL of 0 never expires.
// Several Cache values, even in different processes, may share a directory.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewCache creates a Cache in dir, creating the directory if needed.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("httputil: cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live of entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the bytes stored under key.
//
//   - (data, true, nil): fresh hit
//   - (nil, false, nil): miss
//   - (data, false, ErrExpired): stale hit
//   - (nil, false, err): I/O failure
func (c *Cache) Get(key string) ([]byte, bool, error) {
	path := c.keyPath(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return data, false, ErrExpired
	}
	return data, true, nil
}

// Set stores data under key, resetting its age. The write goes through a
// temporary file so concurrent readers never see a partial body.
func (c *Cache) Set(key string, data []byte) error {
	path := c.keyPath(key)
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
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
	return os.Rename(tmp.Name(), path)
}

// Namespace returns a view of the cache that prefixes every key.
// Calls chain: c.Namespace("a:").Namespace("b:") uses "a:b:".
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
		now:    c.now,
	}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(c.prefix + key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
