package highlight

import (
	"strings"
	"testing"

	"github.com/ppiankov/factlens/internal/dom"
	"github.com/ppiankov/factlens/internal/model"
	"golang.org/x/net/html"
)

var hamilton = model.FactRecord{
	Key:           "Lewis Hamilton",
	Team:          "Ferrari",
	Wins:          105,
	Championships: 7,
	CareerSpan:    "2007-present",
}

func TestPosition(t *testing.T) {
	vp := DefaultViewport()
	box := Box{Width: 200, Height: 80}

	tests := []struct {
		name     string
		pointer  Pointer
		viewport Viewport
		box      Box
		left     int
		top      int
	}{
		{"below right of cursor", Pointer{100, 100}, vp, box, 110, 115},
		{"flips left at right edge", Pointer{1200, 100}, vp, box, 990, 115},
		{"flips above at bottom edge", Pointer{100, 780}, vp, box, 110, 685},
		{"flips both near bottom right", Pointer{1275, 795}, vp, box, 1065, 700},
		{
			"scroll offsets are document coordinates",
			Pointer{100, 780},
			Viewport{ScrollX: 50, ScrollY: 1000, InnerWidth: 1280, InnerHeight: 800, BodyRight: 1280},
			box, 160, 1685,
		},
		{"clamps to zero", Pointer{50, 50}, vp, Box{Width: 300, Height: 900}, 60, 0},
		{"clamps left to zero after flip", Pointer{20, 100}, Viewport{InnerHeight: 800, BodyRight: 100}, box, 0, 115},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, top := Position(tt.pointer, tt.viewport, tt.box, 10, 15)
			if left != tt.left || top != tt.top {
				t.Errorf("Position() = (%d, %d), want (%d, %d)", left, top, tt.left, tt.top)
			}
		})
	}
}

func TestPosition_StaysInsideViewportNearBottomRight(t *testing.T) {
	vp := DefaultViewport()
	for _, box := range []Box{{158, 83}, {320, 200}, {600, 400}} {
		left, top := Position(Pointer{1270, 790}, vp, box, 10, 15)
		if left < 0 || left > vp.BodyRight || top < 0 || top > vp.InnerHeight {
			t.Errorf("box %+v placed at (%d, %d), outside viewport", box, left, top)
		}
		if left+box.Width > vp.BodyRight || top+box.Height > vp.InnerHeight {
			t.Errorf("box %+v at (%d, %d) overflows", box, left, top)
		}
	}
}

func TestFontMeasurer(t *testing.T) {
	tip := NewTooltip(model.DefaultConfig().Tooltip, NewFontMeasurer(8, 1, 0))
	tip.render(hamilton)

	// widest line "Career: 2007-present" is 20 glyphs of 7px; 5 lines of 13px
	box := tip.measurer.Measure(tip.Node())
	if box.Width != 20*7+18 || box.Height != 5*13+18 {
		t.Errorf("Measure() = %+v, want {158 83}", box)
	}
}

func TestFontMeasurer_WrapsAtMaxWidth(t *testing.T) {
	tip := NewTooltip(model.DefaultConfig().Tooltip, NewFontMeasurer(8, 1, 100))
	tip.render(hamilton)

	// content width 82px: every line except "Wins: 105" wraps once
	box := tip.measurer.Measure(tip.Node())
	if box.Width != 100 || box.Height != 9*13+18 {
		t.Errorf("Measure() = %+v, want {100 135}", box)
	}
}

func TestTooltip_ShowAndHide(t *testing.T) {
	doc, _ := dom.ParseString(`<html><body><p>text</p></body></html>`)
	cfg := model.DefaultConfig().Tooltip
	cfg.MaxWidth = 0
	tip := NewTooltip(cfg, nil)

	if !tip.Attach(doc) {
		t.Fatal("Expected tooltip to be inserted")
	}
	if !strings.Contains(dom.GetAttribute(tip.Node(), "style"), "display: none") {
		t.Error("Expected tooltip to start hidden")
	}

	tip.Show(hamilton, Pointer{100, 100}, DefaultViewport())

	state := tip.State()
	want := TooltipState{Visible: true, Key: "Lewis Hamilton", Left: 110, Top: 115, Width: 158, Height: 83}
	if state != want {
		t.Errorf("State() = %+v, want %+v", state, want)
	}

	style := dom.GetAttribute(tip.Node(), "style")
	if !strings.HasPrefix(style, model.DefaultTooltipStyle) || !strings.HasSuffix(style, "display: block; left: 110px; top: 115px") {
		t.Errorf("Unexpected style: %s", style)
	}

	out := tip.HTML()
	if !strings.Contains(out, "<strong>Lewis Hamilton</strong><br/>Team: Ferrari<br/>Wins: 105<br/>Championships: 7<br/>Career: 2007-present") {
		t.Errorf("Unexpected tooltip HTML: %s", out)
	}

	tip.Hide()
	if tip.State().Visible {
		t.Error("Expected tooltip to be hidden")
	}
	if !strings.HasSuffix(dom.GetAttribute(tip.Node(), "style"), "display: none") {
		t.Errorf("Unexpected hidden style: %s", dom.GetAttribute(tip.Node(), "style"))
	}
}

func TestTooltip_EscapesContent(t *testing.T) {
	tip := NewTooltip(model.DefaultConfig().Tooltip, nil)
	rec := hamilton
	rec.Team = "<b>Evil</b>"
	tip.Show(rec, Pointer{0, 0}, DefaultViewport())

	if out := tip.HTML(); !strings.Contains(out, "Team: &lt;b&gt;Evil&lt;/b&gt;") {
		t.Errorf("Expected escaped team, got %s", out)
	}
}

func TestTooltip_AttachIsSingleton(t *testing.T) {
	doc, _ := dom.ParseString(`<html><body><p>text</p></body></html>`)
	cfg := model.DefaultConfig().Tooltip

	first := NewTooltip(cfg, nil)
	first.Attach(doc)
	if first.Attach(doc) {
		t.Error("Expected second attach of the same tooltip to be a no-op")
	}

	second := NewTooltip(cfg, nil)
	if second.Attach(doc) {
		t.Error("Expected an existing tooltip element to be adopted")
	}
	if second.Node() != first.Node() {
		t.Error("Expected the adopted node to be the existing element")
	}

	count := len(dom.FindAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && dom.GetAttribute(n, "id") == cfg.ID
	}))
	if count != 1 {
		t.Errorf("Expected exactly one tooltip element, got %d", count)
	}
}
