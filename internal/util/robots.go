package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a page may be fetched for annotation.
// Parsed robots.txt files are kept per origin for the checker's lifetime.
type RobotsChecker struct {
	mu         sync.RWMutex
	origins    map[string]*robotstxt.Group
	httpClient *http.Client
	userAgent  string
	agent      string
}

// NewRobotsChecker creates a checker that fetches robots.txt with client.
// A nil client gets a plain one with the given timeout.
func NewRobotsChecker(userAgent string, client *http.Client, timeout time.Duration) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RobotsChecker{
		origins:    make(map[string]*robotstxt.Group),
		httpClient: client,
		userAgent:  userAgent,
		agent:      NormalizeUserAgent(userAgent),
	}
}

// CanFetch reports whether rawURL is allowed and the crawl delay for it.
// Unreachable robots.txt files allow everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return true, 0, nil
	}

	group, err := r.group(ctx, parsed.Scheme+"://"+parsed.Host)
	if err != nil {
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return group.Test(path), group.CrawlDelay, nil
}

func (r *RobotsChecker) group(ctx context.Context, origin string) (*robotstxt.Group, error) {
	r.mu.RLock()
	g, ok := r.origins[origin]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	g = data.FindGroup(r.agent)
	r.mu.Lock()
	r.origins[origin] = g
	r.mu.Unlock()
	return g, nil
}

// NormalizeUserAgent reduces a User-Agent header to the product token
// robots.txt groups are matched against, e.g. "FactLens/0.1 (+url)" -> "FactLens".
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
