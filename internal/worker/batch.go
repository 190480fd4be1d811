package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ppiankov/factlens/internal/pipeline"
)

// Annotator annotates a single source
type Annotator interface {
	Annotate(ctx context.Context, source string) (*pipeline.AnnotateResult, error)
}

// AnnotateJob annotates one source of a batch
type AnnotateJob struct {
	Index     int
	Source    string
	Annotator Annotator
	Limiter   *Limiter
}

// Execute executes the annotation job
func (j *AnnotateJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Source); err != nil {
			return &SourceResult{Index: j.Index, Source: j.Source, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	result, err := j.Annotator.Annotate(ctx, j.Source)
	if err != nil {
		return &SourceResult{Index: j.Index, Source: j.Source, Error: err}
	}
	return &SourceResult{Index: j.Index, Source: j.Source, Result: result}
}

// SourceResult is the outcome of annotating one source
type SourceResult struct {
	Index  int
	Source string
	Result *pipeline.AnnotateResult
	Error  error
}

// GetError returns the error from the annotation
func (r *SourceResult) GetError() error {
	return r.Error
}

// BatchProcessor annotates many sources concurrently. Every document gets its
// own controller; only the loaded dataset is shared.
type BatchProcessor struct {
	annotator   Annotator
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor; requestsPerSecond <= 0
// disables rate limiting
func NewBatchProcessor(annotator Annotator, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		annotator:   annotator,
		concurrency: concurrency,
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// ProcessSources annotates sources concurrently and returns one result per
// source in input order. Sources left unstarted when ctx ends carry ctx's error.
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*SourceResult {
	if len(sources) == 0 {
		return []*SourceResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	out := make([]*SourceResult, len(sources))
	for i, source := range sources {
		job := &AnnotateJob{
			Index:     i,
			Source:    source,
			Annotator: b.annotator,
			Limiter:   b.limiter,
		}
		if !pool.Submit(job) {
			out[i] = &SourceResult{Index: i, Source: source, Error: ctx.Err()}
		}
	}

	for _, result := range pool.Wait() {
		r := result.(*SourceResult)
		out[r.Index] = r
	}

	// workers stop taking queued jobs once ctx is done; those never ran
	for i, r := range out {
		if r != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &SourceResult{Index: i, Source: sources[i], Error: fmt.Errorf("not started: %w", err)}
	}

	return out
}

// ProcessArgs expands command-line arguments into sources and annotates them
func (b *BatchProcessor) ProcessArgs(ctx context.Context, args []string) ([]*SourceResult, error) {
	sources, err := ExpandSources(args)
	if err != nil {
		return nil, err
	}
	return b.ProcessSources(ctx, sources), nil
}

// ExpandSources turns arguments into a deduplicated source list. URLs pass
// through, "@file" reads one source per line, patterns such as
// "pages/**/*.html" are expanded with doublestar, and anything else is
// taken as a literal path.
func ExpandSources(args []string) ([]string, error) {
	var sources []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}

	for _, arg := range args {
		switch {
		case isRemote(arg):
			add(arg)
		case strings.HasPrefix(arg, "@"):
			listed, err := ReadSourcesFromFile(strings.TrimPrefix(arg, "@"))
			if err != nil {
				return nil, err
			}
			for _, s := range listed {
				add(s)
			}
		case strings.ContainsAny(arg, "*?[{"):
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expand %s: %w", arg, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}
		default:
			add(arg)
		}
	}

	return sources, nil
}

// ReadSourcesFromFile reads sources from a file (one per line)
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
