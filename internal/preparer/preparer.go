// Package preparer filters crawled articles into a canonical chunked corpus:
// whitespace normalization, short-article and boilerplate rejection, word-
// boundary chunking, and global content-level deduplication.
package preparer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/3bdelKhale2/Link-chatbot/internal/chunker"
	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/jsonl"
)

// boilerplateTriggers are navigation/schedule phrases whose heavy repetition
// signals a listing page rather than a real article.
var boilerplateTriggers = []string{"مباريات الأمس", "مباريات اليوم", "مباريات الغد"}

// whitespaceRun collapses runs of whitespace to a single space.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Options configures one prepare run.
type Options struct {
	// ChunkSize is the maximum characters per chunk.
	ChunkSize int
	// MinChars rejects articles whose normalized text is shorter.
	MinChars int
	// BoilerplateThreshold rejects articles where the trigger phrases appear
	// combined at least this many times.
	BoilerplateThreshold int
	// Dedupe drops chunks whose exact text was already emitted anywhere in
	// this run, guarding against boilerplate paragraphs repeated verbatim
	// across pages.
	Dedupe bool
}

// Stats aggregates the outcome of one prepare run.
type Stats struct {
	KeptArticles  int `json:"kept_articles"`
	SkippedShort  int `json:"skipped_short"`
	SkippedBoiler int `json:"skipped_boiler"`
	WrittenChunks int `json:"written_chunks"`
}

// Prepare streams page records from in, applies the filters, and writes one
// chunk record per surviving chunk to out. Chunk indexes restart at 0 per
// source document. Malformed input lines are skipped by the JSONL decoder.
func Prepare(in io.Reader, out io.Writer, opts Options) (Stats, error) {
	var stats Stats

	w := jsonl.NewWriter(out)
	seenHashes := make(map[string]struct{})

	_, err := jsonl.Decode(in, func(rec domain.PageRecord) error {
		title := NormalizeWhitespace(rec.Title)
		text := NormalizeWhitespace(rec.Text)

		if text == "" || utf8.RuneCountInString(text) < opts.MinChars {
			stats.SkippedShort++
			return nil
		}

		if isBoilerplate(text, opts.BoilerplateThreshold) {
			stats.SkippedBoiler++
			return nil
		}

		stats.KeptArticles++

		for idx, chunk := range chunker.Chunk(text, opts.ChunkSize) {
			chunk = NormalizeWhitespace(chunk)
			if chunk == "" {
				continue
			}

			if opts.Dedupe {
				h := contentHash(chunk)
				if _, dup := seenHashes[h]; dup {
					continue
				}
				seenHashes[h] = struct{}{}
			}

			outRec := domain.ChunkRecord{
				SourceURL:  rec.URL,
				Title:      title,
				Published:  rec.PublishedRaw,
				ChunkIndex: idx,
				Text:       chunk,
			}

			if writeErr := w.Write(outRec); writeErr != nil {
				return writeErr
			}
			stats.WrittenChunks++
		}

		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("prepare: %w", err)
	}

	if flushErr := w.Flush(); flushErr != nil {
		return stats, fmt.Errorf("prepare: %w", flushErr)
	}

	return stats, nil
}

// isBoilerplate reports whether the combined trigger count reaches the
// threshold.
func isBoilerplate(text string, threshold int) bool {
	if threshold <= 0 {
		return false
	}

	repeats := 0
	for _, trigger := range boilerplateTriggers {
		repeats += strings.Count(text, trigger)
	}

	return repeats >= threshold
}

// NormalizeWhitespace collapses whitespace runs to single spaces and trims
// the ends.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// contentHash returns the hex SHA-1 of the chunk text, the dedup key.
func contentHash(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
