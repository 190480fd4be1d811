package highlight

import (
	"github.com/ppiankov/factlens/internal/dom"
	"golang.org/x/net/html"
)

// Engine rewrites text segments into plain text and annotated spans
type Engine struct {
	class     string
	dataAttr  string
	spanStyle string
}

// NewEngine creates an engine that marks spans with class and stores the key in dataAttr
func NewEngine(class, dataAttr, spanStyle string) *Engine {
	return &Engine{class: class, dataAttr: dataAttr, spanStyle: spanStyle}
}

// Process matches keys against one segment and, when anything matched,
// replaces the segment's text node in place. It returns the created span
// elements and the matches; with no match the tree is left untouched.
func (e *Engine) Process(seg Segment, keys []string) ([]*html.Node, []Match) {
	matches := FindMatches(seg.Text, keys)
	if len(matches) == 0 {
		return nil, nil
	}

	runs := runsFor(seg.Text, matches)
	nodes, spans := e.Build(runs)
	if !dom.ReplaceWith(seg.Node, nodes...) {
		return nil, nil
	}

	return spans, matches
}

// Build turns runs into detached nodes. Empty plain runs produce no node.
func (e *Engine) Build(runs []Run) (nodes []*html.Node, spans []*html.Node) {
	for _, run := range runs {
		if !run.Annotated() {
			if run.Text != "" {
				nodes = append(nodes, dom.NewText(run.Text))
			}
			continue
		}

		span := e.NewSpan(run.Text, run.Key)
		nodes = append(nodes, span)
		spans = append(spans, span)
	}
	return nodes, spans
}

// NewSpan creates an annotated span holding text and referencing key
func (e *Engine) NewSpan(text, key string) *html.Node {
	attrs := []html.Attribute{
		{Key: "class", Val: e.class},
		{Key: e.dataAttr, Val: key},
	}
	if e.spanStyle != "" {
		attrs = append(attrs, html.Attribute{Key: "style", Val: e.spanStyle})
	}

	span := dom.NewElement("span", attrs...)
	span.AppendChild(dom.NewText(text))
	return span
}
