package model

import "time"

// Report summarizes one annotation run over a single document
type Report struct {
	Subject     string     `json:"subject"`
	Source      string     `json:"source"`
	AnnotatedAt time.Time  `json:"annotated_at"`
	FetchMeta   *FetchMeta `json:"fetch_meta,omitempty"` // nil for local files

	Dataset   DatasetInfo    `json:"dataset"`
	Stats     ScanStats      `json:"stats"`
	Matches   []MatchRecord  `json:"matches"`
	KeyCounts map[string]int `json:"key_counts"`

	// Tooltip is set when a hover was simulated
	Tooltip *TooltipSnapshot `json:"tooltip,omitempty"`
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	FromCache    bool              `json:"from_cache"`
	Truncated    bool              `json:"truncated,omitempty"`
}

// DatasetInfo describes the fact store used for a run
type DatasetInfo struct {
	Source string `json:"source"`
	Keys   int    `json:"keys"`
}

// ScanStats counts what one scan pass did
type ScanStats struct {
	Segments  int           `json:"segments"`  // Text segments collected
	Rewritten int           `json:"rewritten"` // Segments replaced in the tree
	Spans     int           `json:"spans"`     // Annotated spans created
	Bound     int           `json:"bound"`     // Spans with a highlight controller
	Duration  time.Duration `json:"duration_ns"`
}

// MatchRecord is one annotated occurrence in document order. Segment numbers
// continue across rescans of the same document.
type MatchRecord struct {
	Key     string `json:"key"`
	Text    string `json:"text"`
	Segment int    `json:"segment"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// TooltipSnapshot records the tooltip after a simulated hover
type TooltipSnapshot struct {
	Visible bool   `json:"visible"`
	Key     string `json:"key,omitempty"`
	Left    int    `json:"left"`
	Top     int    `json:"top"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	HTML    string `json:"html,omitempty"`
}
