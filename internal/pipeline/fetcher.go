package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/cache"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/util"
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptData = "application/json,application/yaml,text/yaml;q=0.9,*/*;q=0.5"

	maxFetchAttempts = 3
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrTruncated is returned when a dataset body exceeds http.max_body_bytes
var ErrTruncated = errors.New("body exceeds size limit")

// StatusError is returned for a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// TransportError wraps a failure to complete the HTTP exchange
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "fetch: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// fetchSleepFunc is replaced in tests to skip backoff
var fetchSleepFunc = time.Sleep

// Fetcher fetches pages to annotate and remote fact datasets
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	robots     *util.RobotsChecker
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(httpProxy, httpsProxy, noProxy)
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via http.insecure_tls
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// SetCache enables caching of fetched pages and datasets
func (f *Fetcher) SetCache(c cache.Cache) {
	f.cache = c
}

// SetRobots enables the robots.txt gate for page fetches
func (f *Fetcher) SetRobots(r *util.RobotsChecker) {
	f.robots = r
}

// Client returns the underlying HTTP client so robots.txt checks share proxy settings
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML     string          `json:"html"`
	Meta     model.FetchMeta `json:"meta"`
	Subject  string          `json:"subject"`
	FinalURL string          `json:"final_url"`
}

// Fetch retrieves HTML content from the given URL in a single attempt
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	return f.fetch(ctx, rawURL, acceptHTML)
}

// FetchWithRetry fetches a page, retrying transient failures with backoff.
// Cached pages are returned without touching the network.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if cached, ok := f.cached(cache.NamespacePage, rawURL); ok {
		return cached, nil
	}

	if f.robots != nil {
		allowed, _, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
	}

	result, err := f.retry(ctx, rawURL, acceptHTML)
	if err != nil {
		return nil, err
	}
	f.store(cache.NamespacePage, rawURL, result)
	return result, nil
}

// FetchBody downloads a remote dataset body. Datasets skip the robots.txt
// gate because they are configured explicitly, not discovered.
func (f *Fetcher) FetchBody(ctx context.Context, rawURL string) ([]byte, error) {
	if cached, ok := f.cached(cache.NamespaceDataset, rawURL); ok {
		return []byte(cached.HTML), nil
	}

	result, err := f.retry(ctx, rawURL, acceptData)
	if err != nil {
		return nil, err
	}
	// a cut-off dataset would not parse, or would parse with facts missing
	if result.Meta.Truncated {
		return nil, fmt.Errorf("%w: %s (limit %d bytes)", ErrTruncated, rawURL, f.maxBytes)
	}
	f.store(cache.NamespaceDataset, rawURL, result)
	return []byte(result.HTML), nil
}

func (f *Fetcher) retry(ctx context.Context, rawURL, accept string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.fetch(ctx, rawURL, accept)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || attempt == maxFetchAttempts {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		fetchSleepFunc(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, accept string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		Headers:      make(map[string]string),
	}

	for _, key := range []string{"Content-Length", "Server", "Cache-Control"} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, truncated, err := readBody(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	meta.Truncated = truncated

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		HTML:     string(body),
		Meta:     meta,
		Subject:  extractSubject(finalURL),
		FinalURL: finalURL,
	}, nil
}

// readBody reads at most maxBytes and reports whether more was available.
// maxBytes <= 0 means no limit.
func readBody(r io.Reader, maxBytes int64) ([]byte, bool, error) {
	if maxBytes <= 0 {
		body, err := io.ReadAll(r)
		return body, false, err
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > maxBytes {
		return body[:maxBytes], true, nil
	}
	return body, false, nil
}

func (f *Fetcher) cached(ns cache.Namespace, rawURL string) (*FetchResult, bool) {
	if f.cache == nil {
		return nil, false
	}
	e, ok := f.cache.Get(ns, rawURL)
	if !ok {
		return nil, false
	}
	result := &FetchResult{
		HTML:     string(e.Body),
		Meta:     e.Meta,
		Subject:  e.Subject,
		FinalURL: e.FinalURL,
	}
	result.Meta.FromCache = true
	return result, true
}

func (f *Fetcher) store(ns cache.Namespace, rawURL string, result *FetchResult) {
	if f.cache == nil {
		return
	}
	_ = f.cache.Put(&cache.Entry{
		Namespace: ns,
		URL:       rawURL,
		FinalURL:  result.FinalURL,
		Subject:   result.Subject,
		Body:      []byte(result.HTML),
		Meta:      result.Meta,
	})
}

// isRetryableFetchError reports whether a fetch error is transient:
// transport failures other than cancellation, 5xx and 429 responses.
func isRetryableFetchError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

// extractSubject extracts a human-readable subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	// De-slugify: replace underscores and hyphens with spaces
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
