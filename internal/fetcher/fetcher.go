package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

// DefaultUserAgent identifies the crawler to target hosts.
const DefaultUserAgent = "KooraCrawler/1.0 (+https://github.com/3bdelKhale2/Link-chatbot)"

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024

// defaultInitialBackoff is the first retry interval for transient statuses.
const defaultInitialBackoff = 500 * time.Millisecond

// Result is the outcome of a fetch. Skipped is true when robots.txt
// disallowed the URL; no request was made in that case.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Skipped     bool
}

// Config holds fetcher construction options.
type Config struct {
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

// Fetcher is a polite HTTP client: it consults a robots policy before every
// request and retries transient failures (429, 500, 502, 503, 504 and
// transport errors) with bounded exponential backoff.
type Fetcher struct {
	client     *http.Client
	robots     RobotsPolicy
	log        logger.Interface
	userAgent  string
	maxRetries uint64
}

// New creates a Fetcher. A nil robots policy allows everything.
func New(cfg Config, robots RobotsPolicy, log logger.Interface) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	if robots == nil {
		robots = AllowAllPolicy{}
	}

	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		robots:     robots,
		log:        log,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Fetch retrieves url, honoring robots.txt and the retry policy. A robots
// disallow returns a Skipped result without touching the network. Exhausted
// retries surface the last error; callers treat that as "no content for this
// URL" and continue.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if !f.robots.IsAllowed(ctx, url) {
		f.log.Info("robots disallowed", "url", url)
		return &Result{Skipped: true}, nil
	}

	var result *Result

	operation := func() error {
		res, err := f.doFetch(ctx, url)
		if err != nil {
			return err
		}

		if isTransientStatus(res.StatusCode) {
			return fmt.Errorf("transient http status %d", res.StatusCode)
		}

		result = res

		return nil
	}

	policy := backoff.WithContext(f.newBackoff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	return result, nil
}

// newBackoff builds the bounded exponential retry policy.
func (f *Fetcher) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialBackoff

	return backoff.WithMaxRetries(b, f.maxRetries)
}

// doFetch performs a single HTTP GET request.
func (f *Fetcher) doFetch(ctx context.Context, url string) (*Result, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", reqErr))
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// isTransientStatus reports whether the status code should be retried.
func isTransientStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
