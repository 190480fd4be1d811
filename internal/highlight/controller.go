// Package highlight finds known names in an HTML document, wraps each
// occurrence in an annotated span, and drives a single fact tooltip for hovers
// over those spans.
package highlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/factlens/internal/dom"
	"github.com/ppiankov/factlens/internal/factstore"
	"github.com/ppiankov/factlens/internal/model"
	"golang.org/x/net/html"
)

// ErrAlreadyLoaded is returned when a controller is started a second time
var ErrAlreadyLoaded = errors.New("fact store already loaded")

// Controller owns the fact store, the tooltip and the span bindings for one document
type Controller struct {
	cfg       *model.Config
	logger    *slog.Logger
	store     *factstore.Store
	collector *Collector
	engine    *Engine
	binder    *Binder
	tooltip   *Tooltip
	matches   []model.MatchRecord

	// segments seen by earlier scans; keeps MatchRecord.Segment unique across rescans
	segmentBase int
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger (default slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMeasurer replaces the tooltip measurer
func WithMeasurer(m Measurer) Option {
	return func(c *Controller) {
		c.tooltip = NewTooltip(c.cfg.Tooltip, m)
	}
}

// WithStore preloads the fact store, skipping the asynchronous load
func WithStore(store *factstore.Store) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// NewController creates a controller from cfg
func NewController(cfg *model.Config, opts ...Option) *Controller {
	hl := cfg.Highlight
	c := &Controller{
		cfg:       cfg,
		logger:    slog.Default(),
		collector: NewCollector(hl.SkipTags, hl.Class, cfg.Tooltip.ID),
		engine:    NewEngine(hl.Class, hl.DataAttr, hl.SpanStyle),
		tooltip:   NewTooltip(cfg.Tooltip, nil),
	}
	c.binder = NewBinder(hl.Class, hl.DataAttr, c.onEnter, c.onLeave)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init inserts the tooltip element into doc once
func (c *Controller) Init(doc *html.Node) {
	if !c.tooltip.Attach(doc) {
		c.logger.Debug("tooltip element already present", "id", c.cfg.Tooltip.ID)
	}
}

// Start waits for loader and then scans doc. On load failure, or when the
// dataset is empty, the document is left unmodified and the error is returned.
func (c *Controller) Start(ctx context.Context, doc *html.Node, loader factstore.Loader) (model.ScanStats, error) {
	if c.store != nil {
		return model.ScanStats{}, ErrAlreadyLoaded
	}

	var res factstore.Result
	select {
	case <-ctx.Done():
		return model.ScanStats{}, fmt.Errorf("%w: %w", factstore.ErrLoad, ctx.Err())
	case res = <-factstore.LoadAsync(ctx, loader):
	}

	if res.Err != nil {
		if errors.Is(res.Err, factstore.ErrEmptyStore) {
			c.logger.Warn("fact store is empty, skipping scan")
		} else {
			c.logger.Error("error loading fact store", "error", res.Err)
		}
		return model.ScanStats{}, res.Err
	}

	c.store = res.Store
	c.logger.Info("fact store loaded", "source", res.Store.Source(), "keys", res.Store.Len())

	return c.Scan(doc), nil
}

// Scan annotates every eligible text segment of doc and binds the resulting
// spans. Without a loaded, non-empty store it does nothing.
func (c *Controller) Scan(doc *html.Node) model.ScanStats {
	var stats model.ScanStats
	if !c.store.Ready() {
		c.logger.Info("no fact data loaded, skipping scan")
		return stats
	}

	start := time.Now()
	c.logger.Debug("starting scan")

	keys := c.store.Keys()
	segments := c.collector.Collect(dom.Body(doc))
	stats.Segments = len(segments)

	for i, seg := range segments {
		spans, matches := c.engine.Process(seg, keys)
		if len(spans) == 0 {
			continue
		}
		stats.Rewritten++
		stats.Spans += len(spans)
		for _, m := range matches {
			c.matches = append(c.matches, model.MatchRecord{
				Key:     m.Key,
				Text:    seg.Text[m.Start:m.End],
				Segment: c.segmentBase + i,
				Start:   m.Start,
				End:     m.End,
			})
		}
	}

	c.segmentBase += len(segments)

	stats.Bound = c.binder.Bind(doc)
	stats.Duration = time.Since(start)

	c.logger.Info("scan completed",
		"segments", stats.Segments,
		"spans", stats.Spans,
		"duration", stats.Duration)

	return stats
}

// Rebind reattaches handlers to every annotated span of doc
func (c *Controller) Rebind(doc *html.Node) int {
	return c.binder.Bind(doc)
}

// HoverEnter delivers a pointer-enter on span. It reports whether span is bound.
func (c *Controller) HoverEnter(span *html.Node, p Pointer, vp Viewport) bool {
	return c.binder.Dispatch(span, Event{Kind: EventEnter, Pointer: p, Viewport: vp})
}

// HoverExit delivers a pointer-leave on span
func (c *Controller) HoverExit(span *html.Node) bool {
	return c.binder.Dispatch(span, Event{Kind: EventLeave})
}

// Spans returns the annotated spans of doc in document order
func (c *Controller) Spans(doc *html.Node) []*html.Node {
	return c.binder.Spans(doc)
}

// SpanKey returns the fact key an annotated span refers to
func (c *Controller) SpanKey(span *html.Node) string {
	return dom.GetAttribute(span, c.cfg.Highlight.DataAttr)
}

// Store returns the loaded store, nil before load
func (c *Controller) Store() *factstore.Store {
	return c.store
}

// Tooltip returns the document's tooltip
func (c *Controller) Tooltip() *Tooltip {
	return c.tooltip
}

// Matches returns every match recorded by Scan, in document order
func (c *Controller) Matches() []model.MatchRecord {
	return c.matches
}

func (c *Controller) onEnter(h *Highlight, ev Event) {
	rec, ok := c.store.Lookup(h.Key)
	if !ok {
		c.logger.Debug("hover on span with unknown key", "key", h.Key)
		return
	}
	c.tooltip.Show(rec, ev.Pointer, ev.Viewport)
}

func (c *Controller) onLeave(h *Highlight, ev Event) {
	c.tooltip.Hide()
}
