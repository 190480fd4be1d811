package highlight

import (
	"testing"

	"github.com/ppiankov/factlens/internal/dom"
	"github.com/ppiankov/factlens/internal/model"
	"golang.org/x/net/html"
)

const collectorDoc = `<html><head><title>Lewis Hamilton</title><style>.x{}</style></head><body>
<p>Lewis Hamilton drives.</p>
<script>var n = "Lewis Hamilton";</script>
<textarea>Lewis Hamilton</textarea>
<noscript>Lewis Hamilton</noscript>
<div>   </div>
<span class="f1-driver-highlight" data-driver-name="Max Verstappen">Max <i>Verstappen</i></span>
<p>Second <b>bold</b> tail</p>
<div id="f1-driver-tooltip"><strong>Lewis Hamilton</strong></div>
</body></html>`

func newTestCollector() *Collector {
	cfg := model.DefaultConfig()
	return NewCollector(cfg.Highlight.SkipTags, cfg.Highlight.Class, cfg.Tooltip.ID)
}

func TestCollector_DocumentOrderAndFiltering(t *testing.T) {
	doc, err := dom.ParseString(collectorDoc)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	segments := newTestCollector().Collect(dom.Body(doc))

	want := []string{"Lewis Hamilton drives.", "Second ", "bold", " tail"}
	if len(segments) != len(want) {
		var got []string
		for _, s := range segments {
			got = append(got, s.Text)
		}
		t.Fatalf("Expected %d segments, got %d: %q", len(want), len(segments), got)
	}

	for i, seg := range segments {
		if seg.Text != want[i] {
			t.Errorf("segment[%d] = %q, want %q", i, seg.Text, want[i])
		}
		if seg.Node.Type != html.TextNode || seg.Node.Data != seg.Text {
			t.Errorf("segment[%d] does not reference its text node", i)
		}
	}
}

func TestCollector_RootInsideRejectedRegion(t *testing.T) {
	doc, _ := dom.ParseString(collectorDoc)
	italic := dom.FindFirst(doc, func(n *html.Node) bool { return dom.IsElement(n, "i") })

	if segments := newTestCollector().Collect(italic); segments != nil {
		t.Errorf("Expected no segments under an annotated span, got %d", len(segments))
	}
}

func TestCollector_SkipTagsAreCaseInsensitive(t *testing.T) {
	doc, _ := dom.ParseString(`<html><body><p>keep</p><aside>drop</aside></body></html>`)

	segments := NewCollector([]string{"ASIDE"}, "hl").Collect(dom.Body(doc))
	if len(segments) != 1 || segments[0].Text != "keep" {
		t.Errorf("Unexpected segments: %+v", segments)
	}
}
