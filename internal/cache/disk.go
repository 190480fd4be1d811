package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache persists entries as one JSON file each, grouped by namespace:
// <dir>/page/<hash>.json and <dir>/dataset/<hash>.json
type DiskCache struct {
	dir  string
	ttls TTLs
	now  func() time.Time
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttls TTLs) *DiskCache {
	return &DiskCache{dir: dir, ttls: ttls, now: time.Now}
}

// Get reads the entry for url in ns; expired or unreadable files are removed
func (c *DiskCache) Get(ns Namespace, url string) (*Entry, bool) {
	path := c.path(ns, url)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.URL != url || e.Expired(c.now()) {
		_ = os.Remove(path)
		return nil, false
	}
	return &e, true
}

// Put writes e, stamping its lifetime from the namespace TTL
func (c *DiskCache) Put(e *Entry) error {
	stored := *e
	c.ttls.stamp(&stored, c.now())

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	path := c.path(stored.Namespace, stored.URL)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// write-then-rename so concurrent batch workers never read a torn entry
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for url in ns; a missing entry is not an error
func (c *DiskCache) Delete(ns Namespace, url string) error {
	if err := os.Remove(c.path(ns, url)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every cached file
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(ns Namespace, url string) string {
	key := Key(ns, url)
	return filepath.Join(c.dir, string(ns), key[strings.LastIndex(key, ":")+1:]+".json")
}
