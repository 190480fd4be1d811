package cache

import "time"

// LayeredCache serves from memory and falls back to disk. Disk hits are
// promoted to memory for at most memoryTTL.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a memory + disk cache under dir
func NewLayeredCache(ttls TTLs, memoryTTL time.Duration, dir string) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(ttls, memoryTTL),
		disk:   NewDiskCache(dir, ttls),
	}
}

// Get checks memory, then disk
func (c *LayeredCache) Get(ns Namespace, url string) (*Entry, bool) {
	if e, ok := c.memory.Get(ns, url); ok {
		return e, true
	}

	e, ok := c.disk.Get(ns, url)
	if !ok {
		return nil, false
	}
	// keeps the disk expiry so promotion never extends the entry's life
	_ = c.memory.Put(e)
	return e, true
}

// Put stamps e once and writes it to both layers with the same expiry
func (c *LayeredCache) Put(e *Entry) error {
	stored := *e
	c.disk.ttls.stamp(&stored, c.disk.now())

	if err := c.disk.Put(&stored); err != nil {
		return err
	}
	return c.memory.Put(&stored)
}

// Delete removes the entry from both layers
func (c *LayeredCache) Delete(ns Namespace, url string) error {
	_ = c.memory.Delete(ns, url)
	return c.disk.Delete(ns, url)
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
