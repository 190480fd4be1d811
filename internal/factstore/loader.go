package factstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Loader obtains the dataset
type Loader interface {
	Load(ctx context.Context) (*Store, error)
}

// BodyFetcher retrieves a remote body, typically through a cache
type BodyFetcher interface {
	FetchBody(ctx context.Context, rawURL string) ([]byte, error)
}

// FileLoader reads a dataset from a local file
type FileLoader struct {
	Path string
}

// Load reads and decodes the file
func (l *FileLoader) Load(ctx context.Context) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, l.Path, err)
	}

	store, err := Decode(l.Path, data, FormatFromPath(l.Path))
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	return store, nil
}

// HTTPLoader fetches a dataset from a URL
type HTTPLoader struct {
	URL     string
	Fetcher BodyFetcher
}

// Load fetches and decodes the dataset
func (l *HTTPLoader) Load(ctx context.Context) (*Store, error) {
	data, err := l.Fetcher.FetchBody(ctx, l.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrLoad, l.URL, err)
	}

	store, err := Decode(l.URL, data, FormatFromPath(l.URL))
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	return store, nil
}

// StaticLoader returns a store that is already built
type StaticLoader struct {
	Store *Store
	Err   error
}

// Load returns the configured store or error
func (l StaticLoader) Load(ctx context.Context) (*Store, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	if !l.Store.Ready() {
		return nil, ErrEmptyStore
	}
	return l.Store, nil
}

// NewLoader picks a loader for a dataset path: http(s) URLs go through fetcher,
// anything else is read from disk
func NewLoader(path string, fetcher BodyFetcher) Loader {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return &HTTPLoader{URL: path, Fetcher: fetcher}
	}
	return &FileLoader{Path: path}
}

// Once wraps loader so that it runs at most once; every later Load returns
// the first outcome. Batch runs share one store across documents this way.
func Once(loader Loader) Loader {
	return &onceLoader{loader: loader}
}

type onceLoader struct {
	loader Loader
	once   sync.Once
	store  *Store
	err    error
}

func (l *onceLoader) Load(ctx context.Context) (*Store, error) {
	l.once.Do(func() {
		l.store, l.err = l.loader.Load(ctx)
	})
	return l.store, l.err
}

// Result is the outcome of an asynchronous load
type Result struct {
	Store *Store
	Err   error
}

// LoadAsync runs the loader in its own goroutine and delivers exactly one Result
func LoadAsync(ctx context.Context, loader Loader) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		store, err := loader.Load(ctx)
		ch <- Result{Store: store, Err: err}
	}()
	return ch
}

// wrapDecodeErr keeps ErrEmptyStore distinguishable from other load failures
func wrapDecodeErr(err error) error {
	if errors.Is(err, ErrEmptyStore) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLoad, err)
}
