package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/ppiankov/factlens/internal/model"
)

// Renderer writes annotation outputs
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer that prints summaries to out
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// RenderHTML writes the annotated document to path
func (r *Renderer) RenderHTML(result *AnnotateResult, path string) error {
	doc, err := result.HTML()
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return writeFile(path, []byte(doc))
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderDiff writes a unified diff between the original and annotated
// document to path, or to the summary writer when path is "-"
func (r *Renderer) RenderDiff(result *AnnotateResult, path string) error {
	diff, err := result.Diff()
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = io.WriteString(r.out, diff)
		return err
	}
	return writeFile(path, []byte(diff))
}

// Diff returns a unified diff of the original source against the annotated output
func (r *AnnotateResult) Diff() (string, error) {
	annotated, err := r.HTML()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(r.Original),
		B:        difflib.SplitLines(annotated),
		FromFile: r.Report.Source,
		ToFile:   r.Report.Source + " (annotated)",
		Context:  2,
	})
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	return diff, nil
}

// RenderSummary prints a short human summary of report
func (r *Renderer) RenderSummary(report *model.Report, outputBytes int) {
	fmt.Fprintf(r.out, "\n")
	fmt.Fprintf(r.out, "Subject:   %s\n", report.Subject)
	fmt.Fprintf(r.out, "Dataset:   %s (%s keys)\n", report.Dataset.Source, humanize.Comma(int64(report.Dataset.Keys)))
	fmt.Fprintf(r.out, "Segments:  %d scanned, %d rewritten\n", report.Stats.Segments, report.Stats.Rewritten)
	fmt.Fprintf(r.out, "Spans:     %d (%d bound) in %s\n", report.Stats.Spans, report.Stats.Bound, report.Stats.Duration)
	if report.FetchMeta != nil && report.FetchMeta.FromCache {
		fmt.Fprintf(r.out, "Fetch:     served from cache\n")
	}
	if report.FetchMeta != nil && report.FetchMeta.Truncated {
		fmt.Fprintf(r.out, "Fetch:     truncated at size limit\n")
	}
	if outputBytes > 0 {
		fmt.Fprintf(r.out, "Output:    %s\n", humanize.Bytes(uint64(outputBytes)))
	}

	if len(report.KeyCounts) > 0 {
		fmt.Fprintf(r.out, "\n")
		for _, key := range sortedKeys(report.KeyCounts) {
			fmt.Fprintf(r.out, "  %-28s %s\n", key, humanize.Comma(int64(report.KeyCounts[key])))
		}
	}

	if t := report.Tooltip; t != nil && t.Visible {
		fmt.Fprintf(r.out, "\nTooltip:   %s at (%d, %d), %dx%d\n", t.Key, t.Left, t.Top, t.Width, t.Height)
	}
	fmt.Fprintf(r.out, "\n")
}

// sortedKeys orders keys by count, then name
func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return strings.Compare(keys[i], keys[j]) < 0
	})
	return keys
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
