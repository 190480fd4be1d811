package highlight

import (
	"fmt"

	"github.com/ppiankov/factlens/internal/dom"
	"github.com/ppiankov/factlens/internal/model"
	"golang.org/x/net/html"
)

// Viewport is the layout snapshot a hover is positioned against
type Viewport struct {
	ScrollX     int
	ScrollY     int
	InnerWidth  int
	InnerHeight int
	// BodyRight is the right edge of <body> in client coordinates
	BodyRight int
}

// DefaultViewport is a 1280x800 window scrolled to the top
func DefaultViewport() Viewport {
	return Viewport{InnerWidth: 1280, InnerHeight: 800, BodyRight: 1280}
}

// TooltipState is the observable state of the tooltip
type TooltipState struct {
	Visible bool
	Key     string
	Left    int
	Top     int
	Width   int
	Height  int
}

// Tooltip is the single popup element shared by every span of a document
type Tooltip struct {
	cfg      model.TooltipConfig
	measurer Measurer
	node     *html.Node
	state    TooltipState
}

// NewTooltip creates the detached, hidden tooltip element
func NewTooltip(cfg model.TooltipConfig, measurer Measurer) *Tooltip {
	if measurer == nil {
		measurer = NewFontMeasurer(cfg.Padding, cfg.Border, cfg.MaxWidth)
	}

	t := &Tooltip{
		cfg:      cfg,
		measurer: measurer,
		node:     dom.NewElement("div", html.Attribute{Key: "id", Val: cfg.ID}),
	}
	t.applyStyle()
	return t
}

// Attach inserts the element at the end of doc's <body>. If an element with
// the tooltip id already exists it is adopted instead and Attach returns false.
func (t *Tooltip) Attach(doc *html.Node) bool {
	if existing := dom.ElementByID(doc, t.cfg.ID); existing != nil {
		if existing != t.node {
			t.node = existing
			t.state = TooltipState{}
			t.applyStyle()
		}
		return false
	}

	dom.Body(doc).AppendChild(t.node)
	return true
}

// Show fills the tooltip with rec and positions it next to the pointer. The
// content is rendered and made visible first so the measured size reflects it.
func (t *Tooltip) Show(rec model.FactRecord, p Pointer, vp Viewport) {
	t.render(rec)
	t.state.Visible = true
	t.state.Key = rec.Key
	t.applyStyle()

	box := t.measurer.Measure(t.node)
	t.state.Width = box.Width
	t.state.Height = box.Height
	t.state.Left, t.state.Top = Position(p, vp, box, t.cfg.OffsetX, t.cfg.OffsetY)
	t.applyStyle()
}

// Hide hides the tooltip; content and last position stay in place
func (t *Tooltip) Hide() {
	t.state.Visible = false
	t.applyStyle()
}

// State returns the current tooltip state
func (t *Tooltip) State() TooltipState {
	return t.state
}

// Node returns the tooltip element
func (t *Tooltip) Node() *html.Node {
	return t.node
}

// HTML renders the tooltip element
func (t *Tooltip) HTML() string {
	out, err := dom.Render(t.node)
	if err != nil {
		return ""
	}
	return out
}

// Position places a box of the given size below-right of the pointer, flips
// it left of the pointer when it would pass the body's right edge, flips it
// above when it would pass the bottom of the viewport, and never returns a
// negative coordinate. Results are document coordinates.
func Position(p Pointer, vp Viewport, box Box, offsetX, offsetY int) (left, top int) {
	left = p.ClientX + vp.ScrollX + offsetX
	top = p.ClientY + vp.ScrollY + offsetY

	if left+box.Width > vp.BodyRight+vp.ScrollX {
		left = p.ClientX + vp.ScrollX - box.Width - offsetX
	}
	if top+box.Height > vp.InnerHeight+vp.ScrollY {
		top = p.ClientY + vp.ScrollY - box.Height - offsetY
	}

	return max(0, left), max(0, top)
}

func (t *Tooltip) render(rec model.FactRecord) {
	dom.RemoveChildren(t.node)

	for i, line := range rec.Lines() {
		if i > 0 {
			t.node.AppendChild(dom.NewElement("br"))
		}
		if i == 0 {
			strong := dom.NewElement("strong")
			strong.AppendChild(dom.NewText(line))
			t.node.AppendChild(strong)
			continue
		}
		t.node.AppendChild(dom.NewText(line))
	}
}

func (t *Tooltip) applyStyle() {
	style := t.cfg.Style
	if style != "" {
		style += "; "
	}
	if t.state.Visible {
		style += fmt.Sprintf("display: block; left: %dpx; top: %dpx", t.state.Left, t.state.Top)
	} else {
		style += "display: none"
	}
	dom.SetAttribute(t.node, "style", style)
}
