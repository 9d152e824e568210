package caching

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Cache keeps fetched page bodies on disk, one file per URL, for ttl.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewCache creates the cache directory if needed.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache directory must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) file(url string) string {
	return filepath.Join(c.path, fmt.Sprintf("%x.html", sha256.Sum256([]byte(url))))
}

// Get returns the body stored for url when it is younger than the ttl.
func (c *Cache) Get(url string) ([]byte, bool) {
	name := c.file(url)

	info, err := os.Stat(name)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores body for url. The write goes through a temp file so readers never see a partial body.
func (c *Cache) Set(url string, body []byte) error {
	tmp, err := os.CreateTemp(c.path, "put-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.file(url)); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete drops the entry for url, if any.
func (c *Cache) Delete(url string) error {
	if err := os.Remove(c.file(url)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
