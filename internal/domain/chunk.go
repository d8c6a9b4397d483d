package domain

// ChunkRecord is one bounded-size segment of a page's text, produced by the
// dataset preparer. ChunkIndex is the 0-based position of the chunk within
// its source document and restarts at 0 per document.
type ChunkRecord struct {
	SourceURL  string `json:"url"`
	Title      string `json:"title"`
	Published  string `json:"published"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}
