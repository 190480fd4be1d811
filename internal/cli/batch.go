package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/factlens/internal/pipeline"
	"github.com/ppiankov/factlens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	writeReports bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <glob|file|url|@list>...",
	Short: "Annotate many documents in parallel",
	Long: `Batch annotates every source concurrently with one shared dataset:
- Arguments may be files, URLs, doublestar globs (pages/**/*.html),
  or @list files with one source per line
- The dataset is loaded once and shared by every document
- Remote sources are rate limited per domain
- Each document gets its own annotated HTML and JSON report

Example:
  factlens batch 'pages/**/*.html'
  factlens batch @sources.txt --concurrency 8 --output-dir ./annotated
  factlens batch a.html https://example.com/race --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factlens-out", "output directory for annotated documents")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&writeReports, "json", false, "also write a JSON report per document")
	addSourceFlags(batchCmd.Flags())
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  FactLens Batch Annotation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Dataset:      %s\n", cfg.Dataset.Path)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	sources, err := worker.ExpandSources(args)
	if err != nil {
		return fmt.Errorf("expand sources: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Found %d sources\n", len(sources))
	fmt.Fprintf(os.Stderr, "⚙️  Annotating with %d workers...\n\n", cfg.Concurrency.Workers)

	p := pipeline.NewPipeline(cfg, nil)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	results := processor.ProcessSources(ctx, sources)

	renderer := pipeline.NewRenderer(os.Stdout)
	successCount := 0
	failureCount := 0
	totalSpans := 0
	var totalBytes uint64
	used := make(map[string]int)

	for _, result := range results {
		if result == nil {
			failureCount++
			continue
		}
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		report := result.Result.Report
		slug := uniqueSlug(sanitizeFilename(report.Subject), used)
		htmlPath := filepath.Join(outputDir, slug+".annotated.html")

		if err := renderer.RenderHTML(result.Result, htmlPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write HTML: %v\n", result.Source, err)
			continue
		}
		if writeReports {
			if err := renderer.RenderJSON(report, filepath.Join(outputDir, slug+".json")); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Source, err)
				continue
			}
		}

		if info, err := os.Stat(htmlPath); err == nil {
			totalBytes += uint64(info.Size())
		}
		successCount++
		totalSpans += report.Stats.Spans
		fmt.Fprintf(os.Stderr, "✓ %s (%d spans)\n", report.Subject, report.Stats.Spans)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d sources\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Spans:     %s\n", humanize.Comma(int64(totalSpans)))
	fmt.Fprintf(os.Stderr, "  Written:   %s\n", humanize.Bytes(totalBytes))
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d sources failed", failureCount)
	}
	return nil
}

// uniqueSlug appends -2, -3, ... when two documents share a subject
func uniqueSlug(slug string, used map[string]int) string {
	if slug == "" {
		slug = "document"
	}
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
