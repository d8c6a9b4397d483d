// Package crawler walks a breadth-first frontier over a single target
// domain, composing the fetcher, link normalizer, and article extractor.
// Crawls are bounded by page count and/or depth; any single page's failure
// never aborts the crawl. Partial results are acceptable by design.
package crawler

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/extractor"
	"github.com/3bdelKhale2/Link-chatbot/internal/fetcher"
	"github.com/3bdelKhale2/Link-chatbot/internal/frontier"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

// minFallbackTextLen is the minimum whole-document text length for a page to
// be kept in depth-bounded crawls.
const minFallbackTextLen = 120

// articlePathKeywords are path substrings that mark a URL as article-like.
var articlePathKeywords = []string{
	"news", "article", "sport", "sports", "details", "story", "content", "match",
}

// numericPathSegment matches long numeric IDs in URL paths.
var numericPathSegment = regexp.MustCompile(`/\d{4,}[-/]?`)

// PageWriter persists article-like pages. The pages JSONL store and test
// fakes implement it.
type PageWriter interface {
	WritePage(rec domain.PageRecord) error
}

// Config bounds one crawl invocation.
type Config struct {
	BaseURL  string
	MaxPages int
	MaxDepth int
	Delay    time.Duration
}

// Crawler owns a transient frontier (visited set plus FIFO queue) for the
// duration of one crawl invocation. One request is in flight at a time with
// an enforced inter-request delay; the frontier is single-writer and needs
// no locking.
type Crawler struct {
	fetch *fetcher.Fetcher
	norm  *frontier.Normalizer
	log   logger.Interface
	cfg   Config
}

// queueEntry is one frontier item.
type queueEntry struct {
	url   string
	depth int
}

// New creates a Crawler for the configured target domain.
func New(cfg Config, f *fetcher.Fetcher, log logger.Interface) (*Crawler, error) {
	norm, err := frontier.NormalizerForURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Crawler{fetch: f, norm: norm, log: log, cfg: cfg}, nil
}

// Crawl walks the frontier breadth-first from the base URL until the queue
// drains, the page budget is reached, or ctx is cancelled. Pages whose URL
// looks article-like are persisted through w; every processed page counts
// against the budget regardless.
func (c *Crawler) Crawl(ctx context.Context, w PageWriter) (int, error) {
	visited := make(map[string]struct{})
	queue := []queueEntry{{url: frontier.CanonicalURL(c.cfg.BaseURL), depth: 0}}
	pages := 0

	for len(queue) > 0 && pages < c.cfg.MaxPages {
		if ctx.Err() != nil {
			return pages, ctx.Err()
		}

		entry := queue[0]
		queue = queue[1:]

		if _, seen := visited[entry.url]; seen {
			continue
		}
		visited[entry.url] = struct{}{}

		c.log.Info("fetching", "url", entry.url, "page", pages+1, "budget", c.cfg.MaxPages)

		res, fetchErr := c.fetch.Fetch(ctx, entry.url)

		c.politeDelay(ctx)

		if fetchErr != nil || res.Skipped {
			if fetchErr != nil {
				c.log.Warn("fetch failed", "url", entry.url, "error", fetchErr.Error())
			}
			continue
		}

		if !isHTMLPage(res) {
			c.log.Debug("skipping non-article response",
				"url", entry.url, "status", res.StatusCode, "content_type", res.ContentType)
			pages++
			continue
		}

		doc, parseErr := extractor.Parse(res.Body)
		if parseErr != nil {
			c.log.Warn("parse failed", "url", entry.url, "error", parseErr.Error())
			pages++
			continue
		}

		queue = append(queue, c.discoverLinks(doc, entry, visited)...)

		if LooksLikeArticle(entry.url) {
			c.persistArticle(w, entry.url, doc)
		}

		pages++
	}

	c.log.Info("crawl finished", "pages", pages)

	return pages, nil
}

// CrawlWithDepth walks breadth-first from startURL up to maxDepth links deep
// and returns the extracted documents instead of persisting them. Pages
// where the container scan finds nothing fall back to whole-document text;
// only documents with more than minFallbackTextLen characters are kept.
// maxPages of 0 means unbounded (the depth bound still applies).
func (c *Crawler) CrawlWithDepth(
	ctx context.Context,
	startURL string,
	maxDepth, maxPages int,
) ([]domain.PageRecord, error) {
	visited := make(map[string]struct{})
	queue := []queueEntry{{url: frontier.CanonicalURL(startURL), depth: 0}}

	var results []domain.PageRecord

	for len(queue) > 0 {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		entry := queue[0]
		queue = queue[1:]

		if _, seen := visited[entry.url]; seen {
			continue
		}

		if entry.depth > maxDepth {
			continue
		}
		visited[entry.url] = struct{}{}

		res, fetchErr := c.fetch.Fetch(ctx, entry.url)

		c.politeDelay(ctx)

		if fetchErr != nil || res.Skipped || !isHTMLPage(res) {
			continue
		}

		doc, parseErr := extractor.Parse(res.Body)
		if parseErr != nil {
			continue
		}

		art := extractor.Extract(doc)

		title := art.Title
		if title == "" {
			title = extractor.DocumentTitle(doc)
		}

		text := strings.TrimSpace(art.Text)
		if text == "" {
			text = extractor.WholeText(doc)
		}

		if len([]rune(text)) > minFallbackTextLen {
			results = append(results, domain.PageRecord{
				URL:          entry.url,
				Title:        title,
				PublishedRaw: art.Published,
				Text:         text,
				FetchedAt:    time.Now().UTC().Format(time.RFC3339),
			})
		}

		if maxPages > 0 && len(results) >= maxPages {
			break
		}

		if entry.depth < maxDepth {
			queue = append(queue, c.discoverLinks(doc, entry, visited)...)
		}
	}

	return results, nil
}

// discoverLinks normalizes every anchor on the page and returns frontier
// entries for unvisited same-domain links at depth+1.
func (c *Crawler) discoverLinks(
	doc *goquery.Document,
	entry queueEntry,
	visited map[string]struct{},
) []queueEntry {
	var discovered []queueEntry

	dedup := make(map[string]struct{})

	for _, href := range extractor.Links(doc) {
		normalized, ok := c.norm.Normalize(href, entry.url)
		if !ok {
			continue
		}

		if _, seen := visited[normalized]; seen {
			continue
		}

		if _, dup := dedup[normalized]; dup {
			continue
		}
		dedup[normalized] = struct{}{}

		discovered = append(discovered, queueEntry{url: normalized, depth: entry.depth + 1})
	}

	return discovered
}

// persistArticle runs the article extractor and writes a page record when it
// produced a title or text.
func (c *Crawler) persistArticle(w PageWriter, pageURL string, doc *goquery.Document) {
	art := extractor.Extract(doc)
	if art.Title == "" && art.Text == "" {
		return
	}

	rec := domain.PageRecord{
		URL:          pageURL,
		Title:        art.Title,
		PublishedRaw: art.Published,
		Text:         art.Text,
		FetchedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if writeErr := w.WritePage(rec); writeErr != nil {
		c.log.Error("persist article failed", "url", pageURL, "error", writeErr.Error())
	}
}

// politeDelay sleeps for the configured inter-request delay, applied after
// every fetch attempt including failures.
func (c *Crawler) politeDelay(ctx context.Context) {
	if c.cfg.Delay <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.Delay):
	}
}

// isHTMLPage reports whether the fetch produced a successful HTML document.
func isHTMLPage(res *fetcher.Result) bool {
	return res.StatusCode == 200 && strings.Contains(strings.ToLower(res.ContentType), "text/html")
}

// LooksLikeArticle heuristically classifies a URL as article-like: the path
// contains a content-indicating keyword, or a long numeric segment, or is a
// deep path (three or more segments and longer than 20 characters).
func LooksLikeArticle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(parsed.Path)

	for _, k := range articlePathKeywords {
		if strings.Contains(path, k) {
			return true
		}
	}

	if numericPathSegment.MatchString(path) {
		return true
	}

	return strings.Count(path, "/") >= 3 && len(path) > 20
}
