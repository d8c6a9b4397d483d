package domain

// MatchRecord is a structured fixture parsed from a crawled match page.
// Date is an ISO-8601 day (YYYY-MM-DD) or empty when no date could be parsed;
// records with an empty date are kept and sort last. URL is unique within a
// corpus and serves as the dedup key.
type MatchRecord struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Home        string `json:"home"`
	Away        string `json:"away"`
	Competition string `json:"competition"`
	Title       string `json:"title"`
	URL         string `json:"url"`
}
