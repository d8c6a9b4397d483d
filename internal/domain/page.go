// Package domain defines the core record types shared across the crawl,
// prepare, index, and match pipelines.
package domain

// PageRecord is the raw crawl unit: one article-like page as fetched.
// Records are append-only; once written to the pages JSONL file they are
// never modified. URL is the natural key; duplicate URLs across runs are
// prevented by the persisted seen-URL set, not by this record.
type PageRecord struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	PublishedRaw string `json:"published_raw"`
	Text         string `json:"text"`
	FetchedAt    string `json:"fetched_at"`
}
