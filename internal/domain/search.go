package domain

// SearchResult is one retrieval hit, ordered by descending similarity score.
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Text     string            `json:"text"`
	Metadata map[string]any    `json:"metadata"`
}
