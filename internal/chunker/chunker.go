// Package chunker splits normalized text into bounded-size segments for
// embedding. Chunk boundaries are word boundaries only; a chunk never splits
// inside a word, so rejoining chunks with a single space reconstructs the
// source word sequence exactly.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the default chunk size in characters.
const DefaultMaxChars = 800

// Chunk splits text into segments by greedy word accumulation: words are
// appended to the current chunk until its accumulated length (word lengths
// plus one separator per word) exceeds maxChars, at which point the chunk is
// flushed. Any remainder is flushed at the end. Lengths are measured in
// runes, not bytes, so Arabic text budgets match the source corpus.
//
// The output is a pure function of (text, maxChars): chunk count and content
// are deterministic across runs.
func Chunk(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string

	cur := make([]string, 0, len(words))
	curLen := 0

	for _, w := range words {
		cur = append(cur, w)
		curLen += utf8.RuneCountInString(w) + 1

		if curLen > maxChars {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = cur[:0]
			curLen = 0
		}
	}

	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}

	return chunks
}
