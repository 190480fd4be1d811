// Demo program that annotates a small race report and hovers a name at
// several pointer positions, printing where the tooltip lands
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factlens/internal/dom"
	"github.com/ppiankov/factlens/internal/factstore"
	"github.com/ppiankov/factlens/internal/highlight"
	"github.com/ppiankov/factlens/internal/model"
)

const page = `<html><body>
<h1>Monaco Grand Prix</h1>
<p>Lewis Hamilton took pole ahead of Max Verstappen and Fernando Alonso.</p>
<script>var leader = "Lewis Hamilton";</script>
</body></html>`

func main() {
	fmt.Println("=== Fact Tooltip Demo ===")
	fmt.Println()

	store, err := factstore.New("demo",
		model.FactRecord{Key: "Lewis Hamilton", Team: "Ferrari", Wins: 105, Championships: 7, CareerSpan: "2007-present"},
		model.FactRecord{Key: "Max Verstappen", Team: "Red Bull Racing", Wins: 63, Championships: 4, CareerSpan: "2015-present"},
		model.FactRecord{Key: "Fernando Alonso", Team: "Aston Martin", Wins: 32, Championships: 2, CareerSpan: "2001-present"},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build store: %v\n", err)
		os.Exit(1)
	}

	doc, err := dom.ParseString(page)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}

	ctrl := highlight.NewController(model.DefaultConfig())
	ctrl.Init(doc)
	stats, err := ctrl.Start(context.Background(), doc, factstore.StaticLoader{Store: store})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Annotated %d spans in %d segments (%s)\n\n", stats.Spans, stats.Segments, stats.Duration)

	spans := ctrl.Spans(doc)
	vp := highlight.DefaultViewport()

	positions := []struct {
		label string
		p     highlight.Pointer
	}{
		{"top-left", highlight.Pointer{ClientX: 40, ClientY: 40}},
		{"right edge", highlight.Pointer{ClientX: 1250, ClientY: 40}},
		{"bottom edge", highlight.Pointer{ClientX: 40, ClientY: 790}},
		{"bottom-right corner", highlight.Pointer{ClientX: 1250, ClientY: 790}},
	}

	for _, span := range spans {
		key := ctrl.SpanKey(span)
		fmt.Printf("%s\n", key)
		fmt.Println(strings.Repeat("-", 60))
		for _, pos := range positions {
			ctrl.HoverEnter(span, pos.p, vp)
			s := ctrl.Tooltip().State()
			fmt.Printf("  %-20s pointer (%4d, %3d) -> tooltip at (%4d, %3d), %dx%d\n",
				pos.label, pos.p.ClientX, pos.p.ClientY, s.Left, s.Top, s.Width, s.Height)
			ctrl.HoverExit(span)
		}
		fmt.Println()
	}

	out, err := dom.Render(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("=== Annotated HTML ===")
	fmt.Println(out)
}
