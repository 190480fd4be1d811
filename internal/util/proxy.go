package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
// noProxy is a comma-separated list of hosts or ".domain" suffixes that
// bypass the configured proxies.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := parseNoProxy(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if bypassed(req.URL.Hostname(), bypass) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func parseNoProxy(noProxy string) []string {
	var hosts []string
	for _, h := range strings.Split(noProxy, ",") {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func bypassed(host string, bypass []string) bool {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	for _, b := range bypass {
		if b == "*" || host == b || (strings.HasPrefix(b, ".") && strings.HasSuffix(host, b)) {
			return true
		}
		if !strings.HasPrefix(b, ".") && strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
