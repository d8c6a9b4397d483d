// Package jsonl reads and writes UTF-8 JSON-Lines corpora. Blank lines and
// lines starting with "//" are treated as comments and skipped by every
// reader; malformed lines are counted and skipped, never fatal.
package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrStop can be returned from a Decode callback to stop iteration early.
// Decode swallows it and returns nil.
var ErrStop = errors.New("jsonl: stop iteration")

// maxLineBytes bounds the scanner buffer; crawled match pages can carry very
// long single-line text fields.
const maxLineBytes = 16 * 1024 * 1024

// Decode streams records of type T from r, invoking fn for each decoded
// record. It returns the number of skipped (comment or malformed) lines.
// Decoding stops at the first error returned by fn.
func Decode[T any](r io.Reader, fn func(T) error) (skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			skipped++
			continue
		}

		var rec T
		if unmarshalErr := json.Unmarshal([]byte(line), &rec); unmarshalErr != nil {
			skipped++
			continue
		}

		if fnErr := fn(rec); fnErr != nil {
			if errors.Is(fnErr, ErrStop) {
				return skipped, nil
			}

			return skipped, fnErr
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return skipped, fmt.Errorf("jsonl: scan: %w", scanErr)
	}

	return skipped, nil
}

// ReadFile decodes all records of type T from the file at path.
func ReadFile[T any](path string) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("jsonl: open %s: %w", path, err)
	}
	defer f.Close()

	var records []T

	skipped, decodeErr := Decode(f, func(rec T) error {
		records = append(records, rec)
		return nil
	})
	if decodeErr != nil {
		return nil, skipped, decodeErr
	}

	return records, skipped, nil
}

// Writer appends records to a JSON-Lines stream, one object per line.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w for JSON-Lines output.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	return &Writer{w: bw, enc: enc}
}

// Write encodes one record as a single line.
func (jw *Writer) Write(v any) error {
	if err := jw.enc.Encode(v); err != nil {
		return fmt.Errorf("jsonl: encode: %w", err)
	}

	return nil
}

// Flush flushes buffered output.
func (jw *Writer) Flush() error {
	if err := jw.w.Flush(); err != nil {
		return fmt.Errorf("jsonl: flush: %w", err)
	}

	return nil
}

// CreateFile opens path for writing (truncating), creating parent directories
// as needed. The caller owns both the writer and the file handle.
func CreateFile(path string) (*Writer, *os.File, error) {
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return nil, nil, fmt.Errorf("jsonl: mkdir: %w", mkErr)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("jsonl: create %s: %w", path, err)
	}

	return NewWriter(f), f, nil
}

// AppendFile opens path for appending, creating it (and parent directories)
// if absent.
func AppendFile(path string) (*Writer, *os.File, error) {
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return nil, nil, fmt.Errorf("jsonl: mkdir: %w", mkErr)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("jsonl: open append %s: %w", path, err)
	}

	return NewWriter(f), f, nil
}
