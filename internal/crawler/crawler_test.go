package crawler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdelKhale2/Link-chatbot/internal/crawler"
	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/fetcher"
	"github.com/3bdelKhale2/Link-chatbot/internal/frontier"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

type pageCollector struct {
	pages []domain.PageRecord
}

func (p *pageCollector) WritePage(rec domain.PageRecord) error {
	p.pages = append(p.pages, rec)
	return nil
}

const articleBody = "هذه فقرة محتوى طويلة بما يكفي لتجاوز حد الأربعين حرفًا وتعتبر نص مقال حقيقي للاختبار هنا، " +
	"ونضيف إليها جملة ثانية كاملة حتى يتجاوز النص الكامل حد المئة وعشرين حرفًا المطلوب في وضع الزحف العميق."

func htmlPage(title, body string, links ...string) string {
	var sb strings.Builder

	sb.WriteString("<html><head><title>" + title + "</title></head><body>")
	sb.WriteString("<article><p>" + body + "</p></article>")

	for _, l := range links {
		sb.WriteString(fmt.Sprintf(`<a href="%s">link</a>`, l))
	}

	sb.WriteString("</body></html>")

	return sb.String()
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, htmlPage("home", articleBody, "/news/first-story-1234", "/about", "/style.css"))
		case "/news/first-story-1234":
			fmt.Fprint(w, htmlPage("first story", articleBody, "/news/second-story-5678", "/"))
		case "/news/second-story-5678":
			fmt.Fprint(w, htmlPage("second story", articleBody))
		case "/about":
			fmt.Fprint(w, htmlPage("about", articleBody))
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newCrawler(t *testing.T, baseURL string, maxPages int) *crawler.Crawler {
	t.Helper()

	f := fetcher.New(fetcher.Config{}, fetcher.AllowAllPolicy{}, logger.NewNoop())

	c, err := crawler.New(crawler.Config{
		BaseURL:  baseURL,
		MaxPages: maxPages,
	}, f, logger.NewNoop())
	require.NoError(t, err)

	return c
}

func TestCrawl_PersistsArticleLikePages(t *testing.T) {
	srv := newTestSite(t)
	collector := &pageCollector{}

	pages, err := newCrawler(t, srv.URL, 10).Crawl(context.Background(), collector)
	require.NoError(t, err)

	// Home, two news pages, and /about are reachable; /style.css is filtered
	// by the normalizer before entering the frontier.
	assert.Equal(t, 4, pages)

	var urls []string
	for _, rec := range collector.pages {
		urls = append(urls, rec.URL)
	}

	// Only the /news/ URLs look article-like.
	assert.Len(t, urls, 2)
	assert.Contains(t, urls[0], "/news/first-story-1234")
	assert.Contains(t, urls[1], "/news/second-story-5678")

	for _, rec := range collector.pages {
		assert.NotEmpty(t, rec.Title)
		assert.NotEmpty(t, rec.Text)
		assert.NotEmpty(t, rec.FetchedAt)
	}
}

func TestCrawl_RespectsPageBudget(t *testing.T) {
	srv := newTestSite(t)
	collector := &pageCollector{}

	pages, err := newCrawler(t, srv.URL, 2).Crawl(context.Background(), collector)
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
}

func TestCrawl_VisitedOnlyOnce(t *testing.T) {
	// Pages link back to "/" repeatedly; the visited set must keep the crawl
	// finite even with a generous budget.
	srv := newTestSite(t)
	collector := &pageCollector{}

	pages, err := newCrawler(t, srv.URL, 100).Crawl(context.Background(), collector)
	require.NoError(t, err)

	assert.Equal(t, 4, pages)
}

func TestCrawl_SeedMatchesDiscoveredRootLink(t *testing.T) {
	// The base URL carries no trailing slash while pages link back to "/";
	// both forms must land on one visited entry so the root is fetched once.
	var rootFetches int

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		switch r.URL.Path {
		case "/":
			rootFetches++
			fmt.Fprint(w, htmlPage("home", articleBody, "/news/first-story-1234"))
		case "/news/first-story-1234":
			fmt.Fprint(w, htmlPage("first story", articleBody, "/"))
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	require.False(t, strings.HasSuffix(srv.URL, "/"))

	pages, err := newCrawler(t, srv.URL, 100).Crawl(context.Background(), &pageCollector{})
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
	assert.Equal(t, 1, rootFetches)
}

func TestCrawlWithDepth_DepthBound(t *testing.T) {
	srv := newTestSite(t)

	// Depth 0: only the start URL itself.
	docs, err := newCrawler(t, srv.URL, 100).CrawlWithDepth(context.Background(), srv.URL, 0, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	// Depth 1: start page plus directly linked pages.
	docs, err = newCrawler(t, srv.URL, 100).CrawlWithDepth(context.Background(), srv.URL, 1, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestCrawlWithDepth_MaxPages(t *testing.T) {
	srv := newTestSite(t)

	docs, err := newCrawler(t, srv.URL, 100).CrawlWithDepth(context.Background(), srv.URL, 2, 1)
	require.NoError(t, err)

	assert.Len(t, docs, 1)
}

func TestCrawlDateRange_SeenSetPreventsRefetch(t *testing.T) {
	var matchFetches int

	mux := http.NewServeMux()
	mux.HandleFunc("/match-center", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/match/123/derby">derby</a></body></html>`)
	})
	mux.HandleFunc("/match/123/derby", func(w http.ResponseWriter, r *http.Request) {
		matchFetches++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>مباراة الأهلي و الزمالك</h1><p>تقام المباراة الساعة 20:00 مساء</p></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	seen, err := frontier.OpenSeenSet(filepath.Join(t.TempDir(), "seen.txt"))
	require.NoError(t, err)
	defer seen.Close()

	c := newCrawler(t, srv.URL, 100)

	day, err := timeParseDay("2025-08-14")
	require.NoError(t, err)

	cfg := crawler.DateRangeConfig{Start: day, End: day}

	collector := &pageCollector{}
	written, err := c.CrawlDateRange(context.Background(), cfg, seen, collector)
	require.NoError(t, err)

	assert.Equal(t, 1, written)
	assert.Equal(t, 1, matchFetches)
	require.Len(t, collector.pages, 1)
	assert.Equal(t, "مباراة الأهلي و الزمالك", collector.pages[0].Title)
	assert.Equal(t, "20:00", collector.pages[0].PublishedRaw)

	// Second run over the same day: the seen set suppresses the refetch.
	written, err = c.CrawlDateRange(context.Background(), cfg, seen, collector)
	require.NoError(t, err)

	assert.Equal(t, 0, written)
	assert.Equal(t, 1, matchFetches)
}

func TestLooksLikeArticle(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://x.com/news/whatever", true},
		{"https://x.com/12345", true},
		{"https://x.com/category/sub/some-long-slug-here", true},
		{"https://x.com/", false},
		{"https://x.com/ab", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, crawler.LooksLikeArticle(tt.url))
		})
	}
}

func timeParseDay(s string) (t time.Time, err error) {
	return time.Parse("2006-01-02", s)
}
