package factstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/factlens/internal/model"
)

const driversJSON = `{
	"Max Verstappen": {"team": "Red Bull Racing", "wins": 63, "championships": 4, "career_span": "2015-present"},
	"Lewis Hamilton": {"team": "Ferrari", "wins": 105, "championships": 7, "career_span": "2007-present"},
	"Verstappen": {"team": "Red Bull Racing", "wins": 63, "championships": 4, "career_span": "2015-present"},
	"Alonso": {"team": "Aston Martin", "wins": 32, "championships": 2, "career_span": "2001-present"}
}`

const driversYAML = `
Lewis Hamilton:
  team: Ferrari
  wins: 105
  championships: 7
  career_span: 2007-present
Charles Leclerc:
  team: Ferrari
  wins: 8
  championships: 0
  career_span: 2018-present
`

type fakeFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeFetcher) FetchBody(ctx context.Context, rawURL string) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func TestDecodeJSON_PreservesInsertionOrder(t *testing.T) {
	store, err := Decode("inline", []byte(driversJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{"Max Verstappen", "Lewis Hamilton", "Verstappen", "Alonso"}
	got := store.Keys()
	if len(got) != len(want) {
		t.Fatalf("Expected %d keys, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	rec, ok := store.Lookup("Lewis Hamilton")
	if !ok {
		t.Fatal("Expected Lewis Hamilton to be present")
	}
	if rec.Key != "Lewis Hamilton" || rec.Team != "Ferrari" || rec.Wins != 105 || rec.Championships != 7 || rec.CareerSpan != "2007-present" {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestDecodeYAML_PreservesInsertionOrder(t *testing.T) {
	store, err := Decode("inline.yaml", []byte(driversYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	keys := store.Keys()
	if len(keys) != 2 || keys[0] != "Lewis Hamilton" || keys[1] != "Charles Leclerc" {
		t.Fatalf("Unexpected keys: %v", keys)
	}

	rec, _ := store.Lookup("Charles Leclerc")
	if rec.Key != "Charles Leclerc" || rec.Wins != 8 {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestDecode_EmptyDataset(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"empty JSON object", `{}`, FormatJSON},
		{"empty YAML", ``, FormatYAML},
		{"empty YAML mapping", `{}`, FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("inline", []byte(tt.data), tt.format)
			if !errors.Is(err, ErrEmptyStore) {
				t.Errorf("Expected ErrEmptyStore, got %v", err)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode("inline", []byte(`{"Max": `), FormatJSON); err == nil {
		t.Error("Expected error for truncated JSON")
	}
	if _, err := Decode("inline", []byte("- a\n- b\n"), FormatYAML); err == nil {
		t.Error("Expected error for YAML sequence at top level")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"driver_data.json", FormatJSON},
		{"drivers.YAML", FormatYAML},
		{"drivers.yml", FormatYAML},
		{"https://example.com/data/drivers.yaml?v=2", FormatYAML},
		{"https://example.com/data", FormatJSON},
	}

	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNilStoreIsAbsent(t *testing.T) {
	var s *Store

	if s.Keys() != nil {
		t.Error("Expected nil keys on absent store")
	}
	if _, ok := s.Lookup("Max Verstappen"); ok {
		t.Error("Expected lookup miss on absent store")
	}
	if s.Len() != 0 || s.Ready() {
		t.Error("Expected absent store to be empty and not ready")
	}
}

func TestNew_DuplicateKeepsPosition(t *testing.T) {
	store, err := New("inline",
		model.FactRecord{Key: "A", Wins: 1},
		model.FactRecord{Key: "B", Wins: 2},
		model.FactRecord{Key: "A", Wins: 3},
	)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	keys := store.Keys()
	if len(keys) != 2 || keys[0] != "A" || keys[1] != "B" {
		t.Errorf("Unexpected keys: %v", keys)
	}
	if rec, _ := store.Lookup("A"); rec.Wins != 3 {
		t.Errorf("Expected later duplicate to win, got %+v", rec)
	}

	if _, err := New("inline", model.FactRecord{Key: "  "}); err == nil {
		t.Error("Expected error for blank key")
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drivers.json")
	if err := os.WriteFile(path, []byte(driversJSON), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := (&FileLoader{Path: path}).Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if store.Len() != 4 || store.Source() != path {
		t.Errorf("Unexpected store: len=%d source=%s", store.Len(), store.Source())
	}

	_, err = (&FileLoader{Path: filepath.Join(dir, "missing.json")}).Load(context.Background())
	if !errors.Is(err, ErrLoad) {
		t.Errorf("Expected ErrLoad for missing file, got %v", err)
	}
}

func TestHTTPLoader(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(driversYAML)}
	loader := NewLoader("https://example.com/drivers.yaml", fetcher)

	store, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 keys, got %d", store.Len())
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.calls)
	}

	failing := &HTTPLoader{URL: "https://example.com/drivers.json", Fetcher: &fakeFetcher{err: errors.New("boom")}}
	if _, err := failing.Load(context.Background()); !errors.Is(err, ErrLoad) {
		t.Errorf("Expected ErrLoad, got %v", err)
	}
}

func TestNewLoader_PicksFileLoader(t *testing.T) {
	if _, ok := NewLoader("data/drivers.json", nil).(*FileLoader); !ok {
		t.Error("Expected FileLoader for local path")
	}
}

func TestLoadAsync(t *testing.T) {
	store, _ := Decode("inline", []byte(driversJSON), FormatJSON)
	res := <-LoadAsync(context.Background(), StaticLoader{Store: store})
	if res.Err != nil || res.Store != store {
		t.Errorf("Unexpected result: %+v", res)
	}

	res = <-LoadAsync(context.Background(), StaticLoader{})
	if !errors.Is(res.Err, ErrEmptyStore) {
		t.Errorf("Expected ErrEmptyStore, got %v", res.Err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = <-LoadAsync(ctx, &FileLoader{Path: "whatever.json"})
	if !errors.Is(res.Err, ErrLoad) || !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Expected cancelled load error, got %v", res.Err)
	}
}

func TestOnce(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(driversJSON)}
	loader := Once(&HTTPLoader{URL: "https://example.com/drivers.json", Fetcher: fetcher})

	first, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, _ := loader.Load(context.Background())

	if first != second {
		t.Error("Expected the same store from every load")
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.calls)
	}
}
