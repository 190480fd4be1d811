package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/pipeline"
)

// mockAnnotator implements Annotator
type mockAnnotator struct {
	failOn string
}

func (m *mockAnnotator) Annotate(ctx context.Context, source string) (*pipeline.AnnotateResult, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if source == m.failOn {
		return nil, errors.New("annotate error")
	}
	return &pipeline.AnnotateResult{
		Report: &model.Report{
			Subject: "Test Subject",
			Source:  source,
		},
	}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBatchProcessor_ProcessSources(t *testing.T) {
	processor := NewBatchProcessor(&mockAnnotator{}, 2, 0, 0)

	sources := []string{"http://example.com", "pages/a.html", "http://bing.com", "pages/b.html"}
	results := processor.ProcessSources(context.Background(), sources)

	if len(results) != len(sources) {
		t.Fatalf("expected %d results, got %d", len(sources), len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Source, res.Error)
			continue
		}
		if res.Source != sources[i] || res.Index != i {
			t.Errorf("expected result %d to be %s, got %s (index %d)", i, sources[i], res.Source, res.Index)
		}
		if res.Result == nil || res.Result.Report.Source != sources[i] {
			t.Errorf("expected report for %s", sources[i])
		}
	}
}

func TestBatchProcessor_ProcessSources_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockAnnotator{failOn: "bad.html"}, 2, 10, 2)

	results := processor.ProcessSources(context.Background(), []string{"good.html", "bad.html"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("expected good.html to succeed, got %v", results[0].Error)
	}
	if results[1].Error == nil || results[1].Result != nil {
		t.Errorf("expected bad.html to fail without a result, got %+v", results[1])
	}
}

func TestBatchProcessor_ProcessSources_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnnotator{}, 2, 0, 0)

	results := processor.ProcessSources(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessSources_Cancelled(t *testing.T) {
	processor := NewBatchProcessor(&mockAnnotator{}, 1, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.ProcessSources(ctx, []string{"a.html", "b.html"})
	for _, res := range results {
		if res == nil || !errors.Is(res.Error, context.Canceled) {
			t.Errorf("expected cancelled result, got %+v", res)
		}
	}
}

// slowAnnotator takes delay per source unless ctx ends first
type slowAnnotator struct {
	delay time.Duration
}

func (s *slowAnnotator) Annotate(ctx context.Context, source string) (*pipeline.AnnotateResult, error) {
	select {
	case <-time.After(s.delay):
		return &pipeline.AnnotateResult{Report: &model.Report{Source: source}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestBatchProcessor_ProcessSources_TimeoutMidRun(t *testing.T) {
	processor := NewBatchProcessor(&slowAnnotator{delay: 50 * time.Millisecond}, 1, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sources := []string{"a.html", "b.html", "c.html"}
	results := processor.ProcessSources(ctx, sources)

	if len(results) != len(sources) {
		t.Fatalf("Expected %d results, got %d", len(sources), len(results))
	}
	for i, res := range results {
		if res == nil {
			t.Fatalf("Result %d is nil", i)
		}
		if res.Source != sources[i] || res.Index != i {
			t.Errorf("Result %d out of order: %+v", i, res)
		}
		if !errors.Is(res.Error, context.DeadlineExceeded) {
			t.Errorf("Expected deadline error for %s, got %v", res.Source, res.Error)
		}
	}
}

func TestExpandSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "a.html"), "<p>a</p>")
	writeFile(t, filepath.Join(dir, "pages", "2024", "b.html"), "<p>b</p>")
	writeFile(t, filepath.Join(dir, "pages", "notes.txt"), "skip")

	list := filepath.Join(dir, "sources.txt")
	writeFile(t, list, "https://example.com/wiki/Lewis_Hamilton\n# comment\n\n"+filepath.Join(dir, "pages", "a.html")+"\n")

	sources, err := ExpandSources([]string{
		filepath.Join(dir, "pages", "**", "*.html"),
		"@" + list,
		"https://example.com/wiki/Lewis_Hamilton",
		"extra.html",
	})
	if err != nil {
		t.Fatalf("ExpandSources failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "pages", "2024", "b.html"),
		filepath.Join(dir, "pages", "a.html"),
		"https://example.com/wiki/Lewis_Hamilton",
		"extra.html",
	}
	if len(sources) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, sources)
	}
	for i := range expected {
		if sources[i] != expected[i] {
			t.Errorf("expected source %s at index %d, got %s", expected[i], i, sources[i])
		}
	}
}

func TestExpandSources_MissingList(t *testing.T) {
	if _, err := ExpandSources([]string{"@no_such_file.txt"}); err == nil {
		t.Error("expected error for missing source list")
	}
}

func TestBatchProcessor_ProcessArgs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "<p>a</p>")
	writeFile(t, filepath.Join(dir, "b.html"), "<p>b</p>")

	processor := NewBatchProcessor(&mockAnnotator{}, 2, 0, 0)
	results, err := processor.ProcessArgs(context.Background(), []string{filepath.Join(dir, "*.html")})
	if err != nil {
		t.Fatalf("ProcessArgs failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestReadSourcesFromFile(t *testing.T) {
	content := `http://example.com
# comment
https://google.com
   
http://bing.com   
http://example.com`

	path := filepath.Join(t.TempDir(), "sources.txt")
	writeFile(t, path, content)

	sources, err := ReadSourcesFromFile(path)
	if err != nil {
		t.Fatalf("ReadSourcesFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if len(sources) != len(expected) {
		t.Fatalf("expected %d sources, got %d", len(expected), len(sources))
	}
	for i, s := range sources {
		if s != expected[i] {
			t.Errorf("expected source %s at index %d, got %s", expected[i], i, s)
		}
	}
}

func TestReadSourcesFromFile_NonExistent(t *testing.T) {
	if _, err := ReadSourcesFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestSourceResult_GetError(t *testing.T) {
	r1 := &SourceResult{Source: "a.html"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("annotate failed")
	r2 := &SourceResult{Source: "a.html", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
