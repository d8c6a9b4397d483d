package crawler

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/extractor"
	"github.com/3bdelKhale2/Link-chatbot/internal/frontier"
)

// matchCenterPath is the listing page that links to individual match pages.
const matchCenterPath = "/match-center"

// defaultMaxPerDay caps discovered match links per day as a safety bound.
const defaultMaxPerDay = 500

// isoDay is the layout for day keys and ?date= query values.
const isoDay = "2006-01-02"

// timeToken matches a kickoff time anywhere in page text.
var timeToken = regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`)

// DateRangeConfig bounds a match-center discovery crawl.
type DateRangeConfig struct {
	Start     time.Time
	End       time.Time
	MaxPerDay int
}

// CrawlDateRange discovers match pages day by day across [Start, End]: for
// each date it loads the match-center listing (trying the ?date= variant
// first), collects /match/ links, and fetches every link not in the seen
// set. Extracted pages are persisted through w and their URLs recorded in
// seen regardless of extraction success, so reruns never refetch.
func (c *Crawler) CrawlDateRange(
	ctx context.Context,
	cfg DateRangeConfig,
	seen *frontier.SeenSet,
	w PageWriter,
) (int, error) {
	if cfg.MaxPerDay <= 0 {
		cfg.MaxPerDay = defaultMaxPerDay
	}

	written := 0

	for day := cfg.Start; !day.After(cfg.End); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}

		dateStr := day.Format(isoDay)

		links := c.discoverMatchURLs(ctx, dateStr)
		if len(links) > cfg.MaxPerDay {
			links = links[:cfg.MaxPerDay]
		}

		c.log.Info("discovered match links", "date", dateStr, "count", len(links))

		for _, matchURL := range links {
			if seen.Contains(matchURL) {
				continue
			}

			rec, ok := c.fetchMatchPage(ctx, matchURL)

			if addErr := seen.Add(matchURL); addErr != nil {
				return written, fmt.Errorf("record seen url: %w", addErr)
			}

			if !ok {
				continue
			}

			if writeErr := w.WritePage(rec); writeErr != nil {
				return written, fmt.Errorf("persist match page: %w", writeErr)
			}
			written++
		}
	}

	return written, nil
}

// discoverMatchURLs collects /match/ links from the match-center listing for
// one date, trying the dated listing first and the plain listing as a
// fallback. Results are sorted for deterministic crawl order.
func (c *Crawler) discoverMatchURLs(ctx context.Context, dateStr string) []string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	listing := base + matchCenterPath

	urls := make(map[string]struct{})

	for _, listingURL := range []string{listing + "?date=" + dateStr, listing} {
		res, fetchErr := c.fetch.Fetch(ctx, listingURL)

		c.politeDelay(ctx)

		if fetchErr != nil || res.Skipped || !isHTMLPage(res) {
			continue
		}

		doc, parseErr := extractor.Parse(res.Body)
		if parseErr != nil {
			continue
		}

		for _, href := range extractor.Links(doc) {
			normalized, ok := c.norm.Normalize(href, listingURL)
			if !ok || !strings.Contains(normalized, "/match/") {
				continue
			}

			urls[normalized] = struct{}{}
		}

		if len(urls) > 0 {
			break
		}
	}

	out := make([]string, 0, len(urls))
	for u := range urls {
		out = append(out, u)
	}

	sort.Strings(out)

	return out
}

// fetchMatchPage fetches one match page and builds a page record from its
// heading, visible text, and first kickoff-time token.
func (c *Crawler) fetchMatchPage(ctx context.Context, matchURL string) (domain.PageRecord, bool) {
	res, fetchErr := c.fetch.Fetch(ctx, matchURL)

	c.politeDelay(ctx)

	if fetchErr != nil || res.Skipped || !isHTMLPage(res) {
		return domain.PageRecord{}, false
	}

	doc, parseErr := extractor.Parse(res.Body)
	if parseErr != nil {
		return domain.PageRecord{}, false
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = extractor.DocumentTitle(doc)
	}

	text := extractor.WholeText(doc)

	published := ""
	if m := timeToken.FindStringSubmatch(text); m != nil {
		published = m[1]
	}

	return domain.PageRecord{
		URL:          matchURL,
		Title:        title,
		PublishedRaw: published,
		Text:         text,
		FetchedAt:    time.Now().UTC().Format(time.RFC3339),
	}, true
}
