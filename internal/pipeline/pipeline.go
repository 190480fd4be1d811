package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/cache"
	"github.com/ppiankov/factlens/internal/dom"
	"github.com/ppiankov/factlens/internal/factstore"
	"github.com/ppiankov/factlens/internal/highlight"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/util"
	"golang.org/x/net/html"
)

// ErrNoSpan is returned by Hover when no annotated span carries the requested key
var ErrNoSpan = errors.New("no annotated span for key")

// Pipeline orchestrates loading a source, annotating it and reporting on it.
// The dataset is loaded at most once per Pipeline and shared by every document.
type Pipeline struct {
	fetcher *Fetcher
	loader  factstore.Loader
	config  *model.Config
	logger  *slog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	if c := cache.New(cfg.Cache); c != nil {
		fetcher.SetCache(c)
	}
	if cfg.HTTP.RespectRobots {
		fetcher.SetRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, fetcher.Client(), cfg.HTTP.Timeout))
	}

	return &Pipeline{
		fetcher: fetcher,
		loader:  factstore.Once(factstore.NewLoader(cfg.Dataset.Path, fetcher)),
		config:  cfg,
		logger:  logger,
	}
}

// WithLoader replaces the dataset loader; the replacement is still loaded once
func (p *Pipeline) WithLoader(loader factstore.Loader) *Pipeline {
	p.loader = factstore.Once(loader)
	return p
}

// AnnotateResult is one annotated document and the controller that owns it
type AnnotateResult struct {
	Report   *model.Report
	Original string
	Doc      *html.Node

	ctrl *highlight.Controller
}

// Annotate loads source (a local path or an http(s) URL), waits for the
// dataset, and annotates every known name in the document.
func (p *Pipeline) Annotate(ctx context.Context, source string) (*AnnotateResult, error) {
	original, subject, meta, err := p.readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	doc, err := dom.ParseString(original)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	ctrl := highlight.NewController(p.config, highlight.WithLogger(p.logger.With("source", source)))
	ctrl.Init(doc)

	stats, err := ctrl.Start(ctx, doc, p.loader)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", source, err)
	}

	matches := ctrl.Matches()
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Key]++
	}
	if matches == nil {
		matches = []model.MatchRecord{}
	}

	report := &model.Report{
		Subject:     subject,
		Source:      source,
		AnnotatedAt: time.Now().UTC(),
		FetchMeta:   meta,
		Dataset: model.DatasetInfo{
			Source: ctrl.Store().Source(),
			Keys:   ctrl.Store().Len(),
		},
		Stats:     stats,
		Matches:   matches,
		KeyCounts: counts,
	}

	return &AnnotateResult{
		Report:   report,
		Original: original,
		Doc:      doc,
		ctrl:     ctrl,
	}, nil
}

func (p *Pipeline) readSource(ctx context.Context, source string) (string, string, *model.FetchMeta, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		result, err := p.fetcher.FetchWithRetry(ctx, source)
		if err != nil {
			return "", "", nil, fmt.Errorf("fetch: %w", err)
		}
		meta := result.Meta
		if meta.Truncated {
			p.logger.Warn("page truncated at size limit", "source", source, "max_bytes", p.config.HTTP.MaxBodyBytes)
		}
		return result.HTML, result.Subject, &meta, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", "", nil, fmt.Errorf("read source: %w", err)
	}
	base := filepath.Base(source)
	return string(data), strings.TrimSuffix(base, filepath.Ext(base)), nil, nil
}

// HTML renders the annotated document
func (r *AnnotateResult) HTML() (string, error) {
	return dom.Render(r.Doc)
}

// Hover simulates the pointer entering the first span annotated with key.
// The tooltip snapshot is stored on the report and returned.
func (r *AnnotateResult) Hover(key string, p highlight.Pointer, vp highlight.Viewport) (*model.TooltipSnapshot, error) {
	var target *html.Node
	for _, span := range r.ctrl.Spans(r.Doc) {
		if strings.EqualFold(r.ctrl.SpanKey(span), key) {
			target = span
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSpan, key)
	}

	r.ctrl.HoverEnter(target, p, vp)

	tip := r.ctrl.Tooltip()
	state := tip.State()
	snap := &model.TooltipSnapshot{
		Visible: state.Visible,
		Key:     state.Key,
		Left:    state.Left,
		Top:     state.Top,
		Width:   state.Width,
		Height:  state.Height,
		HTML:    tip.HTML(),
	}
	r.Report.Tooltip = snap
	return snap, nil
}

// Leave simulates the pointer leaving every span, hiding the tooltip
func (r *AnnotateResult) Leave() {
	for _, span := range r.ctrl.Spans(r.Doc) {
		if r.ctrl.HoverExit(span) {
			break
		}
	}
	r.Report.Tooltip = nil
}
