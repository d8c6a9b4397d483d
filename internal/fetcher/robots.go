// Package fetcher provides polite HTTP fetching for the crawler: bounded
// retry with exponential backoff on transient statuses and robots.txt gating
// with per-host caching.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// defaultRobotsCacheTTL is how long a parsed robots.txt entry stays fresh.
const defaultRobotsCacheTTL = 24 * time.Hour

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	IsAllowed(ctx context.Context, rawURL string) bool
}

// RobotsChecker checks and caches robots.txt rules per host. A robots.txt
// that cannot be fetched or parsed results in allow-all: on best-effort
// crawls the policy's own unavailability is common, so availability wins
// over strict compliance.
type RobotsChecker struct {
	httpClient *http.Client
	userAgent  string
	cache      map[string]*robotsCacheEntry // keyed by host
	mu         sync.RWMutex
	cacheTTL   time.Duration
}

// robotsCacheEntry stores the parsed robots.txt data for one host.
type robotsCacheEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool
}

// NewRobotsChecker creates a RobotsChecker. A zero cacheTTL selects the
// default of 24 hours.
func NewRobotsChecker(httpClient *http.Client, userAgent string, cacheTTL time.Duration) *RobotsChecker {
	if cacheTTL == 0 {
		cacheTTL = defaultRobotsCacheTTL
	}

	return &RobotsChecker{
		httpClient: httpClient,
		userAgent:  userAgent,
		cache:      make(map[string]*robotsCacheEntry),
		cacheTTL:   cacheTTL,
	}
}

// IsAllowed reports whether rawURL may be fetched according to the host's
// robots.txt, fetching and caching the policy on first use. Unparseable
// input and policy fetch failures fail open.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, parseErr := url.Parse(rawURL)
	if parseErr != nil || parsed.Host == "" {
		return true
	}

	host := strings.ToLower(parsed.Host)

	entry := r.getOrFetchEntry(ctx, host, parsed.Scheme)
	if entry.allowAll {
		return true
	}

	return entry.data.TestAgent(parsed.Path, r.userAgent)
}

// getOrFetchEntry returns a fresh cached entry or fetches robots.txt.
func (r *RobotsChecker) getOrFetchEntry(ctx context.Context, host, scheme string) *robotsCacheEntry {
	if entry, ok := r.getCachedEntry(host); ok {
		return entry
	}

	return r.fetchAndCache(ctx, host, scheme)
}

// getCachedEntry returns a cached entry if it exists and is not stale.
func (r *RobotsChecker) getCachedEntry(host string) (*robotsCacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[host]
	if !ok {
		return nil, false
	}

	if time.Since(entry.fetchedAt) > r.cacheTTL {
		return nil, false
	}

	return entry, true
}

// fetchAndCache fetches robots.txt for the host and caches the result.
func (r *RobotsChecker) fetchAndCache(ctx context.Context, host, scheme string) *robotsCacheEntry {
	if scheme == "" {
		scheme = "https"
	}

	entry := &robotsCacheEntry{fetchedAt: time.Now(), allowAll: true}

	body, statusCode, fetchErr := r.doFetch(ctx, scheme+"://"+host+robotsTxtPath)
	if fetchErr == nil && isSuccessStatus(statusCode) {
		if robots, parseErr := robotstxt.FromBytes(body); parseErr == nil {
			entry.data = robots
			entry.allowAll = false
		}
	}

	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()

	return entry
}

// doFetch performs the HTTP GET request for a robots.txt URL.
func (r *RobotsChecker) doFetch(ctx context.Context, robotsURL string) (body []byte, statusCode int, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if reqErr != nil {
		return nil, 0, fmt.Errorf("robots: create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, doErr := r.httpClient.Do(req)
	if doErr != nil {
		return nil, 0, fmt.Errorf("robots: fetch: %w", doErr)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxRobotsBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: read body: %w", readErr)
	}

	return body, resp.StatusCode, nil
}

// isSuccessStatus reports whether the HTTP status code is in the 2xx range.
func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

// AllowAllPolicy permits every URL. Used when robots compliance is disabled
// and in tests.
type AllowAllPolicy struct{}

// IsAllowed always returns true.
func (AllowAllPolicy) IsAllowed(context.Context, string) bool { return true }
