package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete factlens configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Dataset      DatasetConfig      `yaml:"dataset" mapstructure:"dataset"`
	Highlight    HighlightConfig    `yaml:"highlight" mapstructure:"highlight"`
	Tooltip      TooltipConfig      `yaml:"tooltip" mapstructure:"tooltip"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls page and dataset fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the memory + disk cache for fetched pages and datasets.
// PageTTL and DatasetTTL bound how long an entry is served; MemoryTTL caps
// how long an entry stays in memory before it is re-read from disk.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir        string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL  time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	PageTTL    time.Duration `yaml:"page_ttl" mapstructure:"page_ttl"`
	DatasetTTL time.Duration `yaml:"dataset_ttl" mapstructure:"dataset_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-domain request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// DatasetConfig points at the name-to-fact dataset
type DatasetConfig struct {
	// Path is a local file (.json, .yaml, .yml) or an http(s) URL
	Path string `yaml:"path" mapstructure:"path"`
}

// HighlightConfig controls how annotated spans are marked in the document
type HighlightConfig struct {
	Class     string   `yaml:"class" mapstructure:"class"`
	DataAttr  string   `yaml:"data_attr" mapstructure:"data_attr"`
	SkipTags  []string `yaml:"skip_tags" mapstructure:"skip_tags"`
	SpanStyle string   `yaml:"span_style" mapstructure:"span_style"`
}

// TooltipConfig controls the singleton tooltip element and its placement
type TooltipConfig struct {
	ID       string `yaml:"id" mapstructure:"id"`
	OffsetX  int    `yaml:"offset_x" mapstructure:"offset_x"`
	OffsetY  int    `yaml:"offset_y" mapstructure:"offset_y"`
	Padding  int    `yaml:"padding" mapstructure:"padding"`
	Border   int    `yaml:"border" mapstructure:"border"`
	MaxWidth int    `yaml:"max_width" mapstructure:"max_width"`
	Style    string `yaml:"style" mapstructure:"style"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Diff    bool `yaml:"diff" mapstructure:"diff"`
}

// DefaultTooltipStyle is the inline style of the tooltip element, display excluded
const DefaultTooltipStyle = "position: absolute; border: 1px solid #ccc; background-color: #f9f9f9; " +
	"padding: 8px; border-radius: 4px; box-shadow: 0 2px 5px rgba(0,0,0,0.2); font-size: 12px; " +
	"font-family: sans-serif; z-index: 10000; pointer-events: none"

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "factlens-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".factlens", "cache")
	}

	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "FactLens/0.1 (+https://github.com/ppiankov/factlens)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        cacheDir,
			MemoryTTL:  15 * time.Minute,
			PageTTL:    time.Hour,
			DatasetTTL: 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Dataset: DatasetConfig{
			Path: "driver_data.json",
		},
		Highlight: HighlightConfig{
			Class:    "f1-driver-highlight",
			DataAttr: "data-driver-name",
			SkipTags: []string{"script", "style", "textarea", "input", "noscript", "template", "select", "option"},
		},
		Tooltip: TooltipConfig{
			ID:       "f1-driver-tooltip",
			OffsetX:  10,
			OffsetY:  15,
			Padding:  8,
			Border:   1,
			MaxWidth: 320,
			Style:    DefaultTooltipStyle,
		},
	}
}
