// Package extractor heuristically extracts article content from HTML
// documents. Title and publish-time resolution are modeled as ordered lists
// of independent candidates combined by first-success; none of this is
// guaranteed accurate, it is a best-effort heuristic over arbitrary markup.
package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// minBlockChars is the minimum rune length for a text block to count as
// content rather than navigation noise.
const minBlockChars = 40

// maxBlocks caps the number of collected text blocks to bound memory.
const maxBlocks = 120

// maxContainerScan is how many content-container candidates are scanned.
const maxContainerScan = 3

// Article is the extraction result. Published carries the raw value of the
// first matching publish-time candidate and may be empty.
type Article struct {
	Title     string
	Published string
	Text      string
}

// candidate is one selector/attribute strategy; an empty attr means the
// element's trimmed text is used.
type candidate struct {
	selector string
	attr     string
}

// titleCandidates are tried in priority order; first non-empty wins.
var titleCandidates = []candidate{
	{selector: "h1"},
	{selector: "meta[property='og:title']", attr: "content"},
	{selector: "meta[name='title']", attr: "content"},
	{selector: "title"},
}

// publishedCandidates are tried in priority order; for each, the datetime
// attribute is preferred, then the content attribute, then element text.
var publishedCandidates = []string{
	"time[datetime]",
	"meta[property='article:published_time']",
	"meta[name='pubdate']",
	"meta[itemprop='datePublished']",
	"span.time",
	"div.time",
}

// contentContainers are article-like containers scanned for body text.
const contentContainers = "article, .article, .post, .news, .content, #content, .post-content, .entry-content"

// lowValueMarkers flag navigation and consent boilerplate blocks.
var lowValueMarkers = []string{"javascript", "cookie", "subscribe", "accept", "login"}

// strippedElements are removed before whole-document fallback text extraction.
const strippedElements = "script, style, noscript, nav, footer, header, aside"

// whitespaceRun collapses runs of whitespace to a single space.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Parse builds a goquery document from raw HTML bytes.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return doc, nil
}

// Extract pulls title, publish time, and body text from the document. When
// no content container yields text, Text is empty; the caller decides
// whether to fall back to whole-document text.
func Extract(doc *goquery.Document) Article {
	return Article{
		Title:     extractTitle(doc),
		Published: extractPublished(doc),
		Text:      extractBodyText(doc),
	}
}

// extractTitle resolves the title through the candidate list.
func extractTitle(doc *goquery.Document) string {
	for _, c := range titleCandidates {
		sel := doc.Find(c.selector).First()
		if sel.Length() == 0 {
			continue
		}

		var value string
		if c.attr == "" {
			value = strings.TrimSpace(sel.Text())
		} else {
			value, _ = sel.Attr(c.attr)
			value = strings.TrimSpace(value)
		}

		if value != "" {
			return value
		}
	}

	return ""
}

// extractPublished resolves the publish time through the candidate list.
func extractPublished(doc *goquery.Document) string {
	for _, selector := range publishedCandidates {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		for _, attr := range []string{"datetime", "content"} {
			if value, ok := sel.Attr(attr); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		}

		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text
		}
	}

	return ""
}

// extractBodyText scans content containers (at most maxContainerScan, in
// document order) and collects paragraph-like blocks from the first
// container that yields any. Blocks under minBlockChars runes or containing
// a low-value marker are discarded.
func extractBodyText(doc *goquery.Document) string {
	var blocks []string

	doc.Find(contentContainers).EachWithBreak(func(i int, container *goquery.Selection) bool {
		if i >= maxContainerScan {
			return false
		}

		container.Find("p, div").Each(func(_ int, block *goquery.Selection) {
			if len(blocks) >= maxBlocks {
				return
			}

			txt := normalizeBlock(block.Text())
			if !isContentBlock(txt) {
				return
			}

			blocks = append(blocks, txt)
		})

		// First container that yielded content wins.
		return len(blocks) == 0
	})

	return strings.Join(blocks, "\n")
}

// isContentBlock reports whether a normalized block looks like article text.
func isContentBlock(txt string) bool {
	if utf8.RuneCountInString(txt) < minBlockChars {
		return false
	}

	lower := strings.ToLower(txt)
	for _, marker := range lowValueMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	return true
}

// normalizeBlock collapses internal whitespace and trims the block.
func normalizeBlock(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// DocumentTitle returns the trimmed <title> text, for page-level audit rows.
func DocumentTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// WholeText strips scripts, styles, and chrome elements and returns the
// remaining document text with whitespace collapsed. The crawler uses this
// as the fallback when the container scan found nothing.
func WholeText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find(strippedElements).Remove()

	return normalizeBlock(clone.Text())
}

// Links returns the href attribute of every anchor in the document.
func Links(doc *goquery.Document) []string {
	var hrefs []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	return hrefs
}
