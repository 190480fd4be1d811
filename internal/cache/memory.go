package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process. Each entry lives until its own
// ExpiresAt, or for at most maxAge when maxAge > 0.
type MemoryCache struct {
	entries *gocache.Cache
	ttls    TTLs
	maxAge  time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a memory cache with per-namespace lifetimes
func NewMemoryCache(ttls TTLs, maxAge time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: gocache.New(gocache.NoExpiration, 10*time.Minute),
		ttls:    ttls,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Get returns a copy of the entry for url in ns
func (c *MemoryCache) Get(ns Namespace, url string) (*Entry, bool) {
	v, ok := c.entries.Get(Key(ns, url))
	if !ok {
		return nil, false
	}
	stored, ok := v.(*Entry)
	if !ok || stored.Expired(c.now()) {
		return nil, false
	}
	e := *stored
	return &e, true
}

// Put stores a copy of e, stamping its lifetime from the namespace TTL
func (c *MemoryCache) Put(e *Entry) error {
	stored := *e
	now := c.now()
	c.ttls.stamp(&stored, now)

	residency := stored.ExpiresAt.Sub(now)
	if residency <= 0 {
		return nil
	}
	if c.maxAge > 0 && c.maxAge < residency {
		residency = c.maxAge
	}
	c.entries.Set(Key(stored.Namespace, stored.URL), &stored, residency)
	return nil
}

// Delete removes the entry for url in ns
func (c *MemoryCache) Delete(ns Namespace, url string) error {
	c.entries.Delete(Key(ns, url))
	return nil
}

// Clear drops every entry
func (c *MemoryCache) Clear() error {
	c.entries.Flush()
	return nil
}
