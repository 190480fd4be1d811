package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/factlens/internal/model"
)

// Namespace separates cached pages from cached datasets; the same URL may be
// fetched as both and each kind has its own lifetime
type Namespace string

const (
	NamespacePage    Namespace = "page"
	NamespaceDataset Namespace = "dataset"
)

// Entry is one fetched body with the response metadata it came with
type Entry struct {
	Namespace Namespace       `json:"namespace"`
	URL       string          `json:"url"`
	FinalURL  string          `json:"final_url"`
	Subject   string          `json:"subject,omitempty"`
	Body      []byte          `json:"body"`
	Meta      model.FetchMeta `json:"meta"`
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the entry is past its lifetime at now
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Cache stores fetched pages and datasets by namespace and URL
type Cache interface {
	Get(ns Namespace, url string) (*Entry, bool)
	Put(e *Entry) error
	Delete(ns Namespace, url string) error
	Clear() error
}

// TTLs holds the lifetime of each namespace
type TTLs struct {
	Page    time.Duration
	Dataset time.Duration
}

// For returns the lifetime for ns, falling back to an hour
func (t TTLs) For(ns Namespace) time.Duration {
	var d time.Duration
	switch ns {
	case NamespacePage:
		d = t.Page
	case NamespaceDataset:
		d = t.Dataset
	}
	if d <= 0 {
		return time.Hour
	}
	return d
}

// stamp fills StoredAt and ExpiresAt when the caller left them unset
func (t TTLs) stamp(e *Entry, now time.Time) {
	if e.StoredAt.IsZero() {
		e.StoredAt = now
	}
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = now.Add(t.For(e.Namespace))
	}
}

// Key generates the cache key for a URL in a namespace
func Key(ns Namespace, url string) string {
	hash := sha256.Sum256([]byte(url))
	return "factlens:v2:" + string(ns) + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg, or nil when caching is disabled.
// Without a directory the cache lives in memory only.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	ttls := TTLs{Page: cfg.PageTTL, Dataset: cfg.DatasetTTL}
	if cfg.Dir == "" {
		return NewMemoryCache(ttls, 0)
	}
	return NewLayeredCache(ttls, cfg.MemoryTTL, cfg.Dir)
}
