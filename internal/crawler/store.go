package crawler

import (
	"fmt"
	"os"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/jsonl"
)

// PageStore appends page records to a JSON-Lines corpus file. Records are
// flushed per write so a killed crawl loses at most the in-flight record.
type PageStore struct {
	w *jsonl.Writer
	f *os.File
}

// OpenPageStore opens the corpus at path in append mode, creating it and any
// parent directories if absent.
func OpenPageStore(path string) (*PageStore, error) {
	w, f, err := jsonl.AppendFile(path)
	if err != nil {
		return nil, fmt.Errorf("page store: %w", err)
	}

	return &PageStore{w: w, f: f}, nil
}

// WritePage appends one record.
func (s *PageStore) WritePage(rec domain.PageRecord) error {
	if err := s.w.Write(rec); err != nil {
		return err
	}

	return s.w.Flush()
}

// Close flushes and closes the corpus file.
func (s *PageStore) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}

	return s.f.Close()
}
