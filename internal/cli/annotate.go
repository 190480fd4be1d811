package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	outHTML     string
	outJSON     string
	outDiff     string
	datasetPath string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noRobots    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
	noProxy     string
)

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate <file|url>",
	Short: "Annotate known names in a single document",
	Long: `Annotate loads the fact dataset, scans the document's visible text for
every known name, and wraps each occurrence in a highlight span bound to
the shared fact tooltip.

Text inside script, style and form controls is never touched, and text
that is already annotated is not annotated again.

Example:
  factlens annotate page.html --dataset driver_data.json
  factlens annotate https://en.wikipedia.org/wiki/Formula_One --out f1.html --json f1.json
  factlens annotate page.html --diff -`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVarP(&outHTML, "out", "o", "", "annotated HTML path (default: <name>.annotated.html)")
	annotateCmd.Flags().StringVar(&outJSON, "json", "", "JSON report path (optional)")
	annotateCmd.Flags().StringVar(&outDiff, "diff", "", "unified diff path, '-' for stdout (optional)")
	addSourceFlags(annotateCmd.Flags())
}

// addSourceFlags registers the dataset and HTTP flags shared by every
// command that loads documents
func addSourceFlags(fs *pflag.FlagSet) {
	fs.StringVar(&datasetPath, "dataset", "", "fact dataset file or URL (default from config: driver_data.json)")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP timeout")
	fs.StringVar(&userAgent, "ua", "", "HTTP User-Agent")
	fs.Int64Var(&maxBytes, "max-bytes", 0, "max response bytes to read")
	fs.BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	fs.BoolVar(&noRobots, "no-robots", false, "ignore robots.txt")
	fs.BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	fs.StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	fs.StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	fs.StringVar(&noProxy, "no-proxy", "", "comma-separated hosts that bypass the proxy")
}

// buildConfig loads file and environment configuration and applies the
// flags the user actually set
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("dataset") {
		cfg.Dataset.Path = datasetPath
	}
	if fs.Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if fs.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if fs.Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if fs.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if fs.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if fs.Changed("no-proxy") {
		cfg.HTTP.NoProxy = noProxy
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}

	return cfg, nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if outDiff != "" {
		cfg.Output.Diff = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTP.Timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Annotating: %s\n", source)
		fmt.Fprintf(os.Stderr, "Dataset:    %s\n", cfg.Dataset.Path)
		fmt.Fprintf(os.Stderr, "Cache:      %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, nil)
	result, err := p.Annotate(ctx, source)
	if err != nil {
		return fmt.Errorf("annotate failed: %w", err)
	}

	return writeOutputs(pipeline.NewRenderer(os.Stdout), result, cfg, defaultOutPath(source))
}

// writeOutputs renders the annotated HTML and the optional JSON report and diff
func writeOutputs(r *pipeline.Renderer, result *pipeline.AnnotateResult, cfg *model.Config, fallbackHTML string) error {
	htmlPath := outHTML
	if htmlPath == "" {
		htmlPath = fallbackHTML
	}
	if err := r.RenderHTML(result, htmlPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote HTML: %s\n", htmlPath)
	}

	if outJSON != "" {
		if err := r.RenderJSON(result.Report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if cfg.Output.Diff {
		diffPath := outDiff
		if diffPath == "" {
			diffPath = "-"
		}
		if err := r.RenderDiff(result, diffPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	size := 0
	if info, err := os.Stat(htmlPath); err == nil {
		size = int(info.Size())
	}
	r.RenderSummary(result.Report, size)
	return nil
}

// defaultOutPath derives "<name>.annotated.html" in the working directory
func defaultOutPath(source string) string {
	name := source
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = sanitizeFilename(strings.TrimSuffix(filepath.Base(strings.TrimRight(name, "/")), filepath.Ext(name)))
	if name == "" || name == "." {
		name = "index"
	}
	return name + ".annotated.html"
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	).Replace(s)

	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
