package highlight

import (
	"github.com/ppiankov/factlens/internal/dom"
	"golang.org/x/net/html"
)

// EventKind is the kind of pointer event delivered to a span
type EventKind int

const (
	EventEnter EventKind = iota
	EventLeave
)

func (k EventKind) String() string {
	switch k {
	case EventEnter:
		return "enter"
	case EventLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Pointer is a pointer position in viewport (client) coordinates
type Pointer struct {
	ClientX int
	ClientY int
}

// Event is a pointer event on an annotated span
type Event struct {
	Kind     EventKind
	Pointer  Pointer
	Viewport Viewport
}

// Handler reacts to an event on a highlight
type Handler func(h *Highlight, ev Event)

// Highlight owns the event handlers of one annotated span. It holds a single
// slot per event kind, so attaching again replaces rather than adds.
type Highlight struct {
	Node *html.Node
	Key  string

	onEnter Handler
	onLeave Handler
}

func (h *Highlight) attach(enter, leave Handler) {
	h.Detach()
	h.onEnter = enter
	h.onLeave = leave
}

// Detach drops both handlers
func (h *Highlight) Detach() {
	h.onEnter = nil
	h.onLeave = nil
}

// Fire runs the handler for ev.Kind and reports whether one was attached
func (h *Highlight) Fire(ev Event) bool {
	var handler Handler
	switch ev.Kind {
	case EventEnter:
		handler = h.onEnter
	case EventLeave:
		handler = h.onLeave
	}
	if handler == nil {
		return false
	}
	handler(h, ev)
	return true
}

// Binder keeps one Highlight per annotated span in a document
type Binder struct {
	class      string
	dataAttr   string
	enter      Handler
	leave      Handler
	highlights map[*html.Node]*Highlight
}

// NewBinder creates a binder for spans carrying class, reading keys from dataAttr
func NewBinder(class, dataAttr string, enter, leave Handler) *Binder {
	return &Binder{
		class:      class,
		dataAttr:   dataAttr,
		enter:      enter,
		leave:      leave,
		highlights: make(map[*html.Node]*Highlight),
	}
}

// Bind attaches handlers to every annotated span under root and returns the
// number of spans bound. Calling it any number of times leaves each span with
// exactly one enter and one leave handler. Highlights whose span is no longer
// under root are detached and forgotten.
func (b *Binder) Bind(root *html.Node) int {
	spans := b.Spans(root)

	current := make(map[*html.Node]*Highlight, len(spans))
	for _, span := range spans {
		h, ok := b.highlights[span]
		if !ok {
			h = &Highlight{Node: span}
		}
		h.Key = dom.GetAttribute(span, b.dataAttr)
		h.attach(b.enter, b.leave)
		current[span] = h
	}

	for node, h := range b.highlights {
		if _, ok := current[node]; !ok {
			h.Detach()
		}
	}
	b.highlights = current

	return len(spans)
}

// Spans returns the annotated spans under root in document order
func (b *Binder) Spans(root *html.Node) []*html.Node {
	return dom.FindAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && dom.HasClass(n, b.class)
	})
}

// Highlight returns the controller bound to span
func (b *Binder) Highlight(span *html.Node) (*Highlight, bool) {
	h, ok := b.highlights[span]
	return h, ok
}

// Len returns the number of bound spans
func (b *Binder) Len() int {
	return len(b.highlights)
}

// Dispatch delivers ev to the highlight bound to span. It returns false when
// span is not bound.
func (b *Binder) Dispatch(span *html.Node, ev Event) bool {
	h, ok := b.highlights[span]
	if !ok {
		return false
	}
	return h.Fire(ev)
}
