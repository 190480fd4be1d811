package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/factlens/internal/highlight"
	"github.com/ppiankov/factlens/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	hoverName   string
	hoverX      int
	hoverY      int
	scrollX     int
	scrollY     int
	innerWidth  int
	innerHeight int
	bodyRight   int
)

// hoverCmd represents the hover command
var hoverCmd = &cobra.Command{
	Use:   "hover <file|url>",
	Short: "Annotate a document and simulate hovering one name",
	Long: `Hover annotates the document, then moves a simulated pointer onto the
first span for --name at client position (--x, --y). The tooltip is
filled with the fact record, measured, and positioned against the given
viewport exactly as the page would show it.

The annotated HTML is written with the tooltip visible.

Example:
  factlens hover page.html --name "Lewis Hamilton" --x 400 --y 300
  factlens hover page.html --name Alonso --x 1200 --y 780 --width 1280 --height 800`,
	Args: cobra.ExactArgs(1),
	RunE: runHover,
}

func init() {
	rootCmd.AddCommand(hoverCmd)

	vp := highlight.DefaultViewport()
	hoverCmd.Flags().StringVar(&hoverName, "name", "", "dataset key to hover (case-insensitive)")
	hoverCmd.Flags().IntVar(&hoverX, "x", 0, "pointer client X")
	hoverCmd.Flags().IntVar(&hoverY, "y", 0, "pointer client Y")
	hoverCmd.Flags().IntVar(&scrollX, "scroll-x", vp.ScrollX, "horizontal scroll offset")
	hoverCmd.Flags().IntVar(&scrollY, "scroll-y", vp.ScrollY, "vertical scroll offset")
	hoverCmd.Flags().IntVar(&innerWidth, "width", vp.InnerWidth, "viewport width")
	hoverCmd.Flags().IntVar(&innerHeight, "height", vp.InnerHeight, "viewport height")
	hoverCmd.Flags().IntVar(&bodyRight, "body-right", 0, "right edge of <body> (default: viewport width)")
	hoverCmd.Flags().StringVarP(&outHTML, "out", "o", "", "annotated HTML path (default: <name>.annotated.html)")
	hoverCmd.Flags().StringVar(&outJSON, "json", "", "JSON report path (optional)")
	addSourceFlags(hoverCmd.Flags())
	_ = hoverCmd.MarkFlagRequired("name")
}

func runHover(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTP.Timeout)
	defer cancel()

	result, err := pipeline.NewPipeline(cfg, nil).Annotate(ctx, source)
	if err != nil {
		return fmt.Errorf("annotate failed: %w", err)
	}

	vp := highlight.Viewport{
		ScrollX:     scrollX,
		ScrollY:     scrollY,
		InnerWidth:  innerWidth,
		InnerHeight: innerHeight,
		BodyRight:   bodyRight,
	}
	if vp.BodyRight == 0 {
		vp.BodyRight = vp.InnerWidth
	}

	snap, err := result.Hover(hoverName, highlight.Pointer{ClientX: hoverX, ClientY: hoverY}, vp)
	if err != nil {
		return fmt.Errorf("hover failed: %w", err)
	}
	if !snap.Visible {
		fmt.Fprintf(os.Stderr, "No fact record for %q, tooltip stays hidden\n", hoverName)
	}

	return writeOutputs(pipeline.NewRenderer(os.Stdout), result, cfg, defaultOutPath(source))
}
