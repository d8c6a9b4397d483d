package frontier

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SeenSet is the persisted set of URLs already recorded by past crawl
// invocations. It is an append-only file plus an in-memory set: a simple
// write-ahead log. A URL may be recorded as seen even if its fetch later
// fails; at-least-once semantics avoid refetch storms on reruns.
//
// The file is loaded once at construction. Concurrent external appends are
// not observed until the next process start; no cross-process coordination
// is provided or required.
type SeenSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
	file *os.File
}

// OpenSeenSet loads the seen-URL file at path, creating it (and parent
// directories) if absent, and keeps it open for appends.
func OpenSeenSet(path string) (*SeenSet, error) {
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return nil, fmt.Errorf("seen set: mkdir: %w", mkErr)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("seen set: open %s: %w", path, err)
	}

	urls := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		u := strings.TrimSpace(scanner.Text())
		if u != "" {
			urls[u] = struct{}{}
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		f.Close()
		return nil, fmt.Errorf("seen set: read %s: %w", path, scanErr)
	}

	return &SeenSet{urls: urls, file: f}, nil
}

// Contains reports whether url has been recorded.
func (s *SeenSet) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.urls[url]

	return ok
}

// Add records url in memory and appends it to the log. Adding an already
// recorded URL is a no-op.
func (s *SeenSet) Add(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urls[url]; ok {
		return nil
	}

	s.urls[url] = struct{}{}

	if _, err := s.file.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("seen set: append: %w", err)
	}

	return nil
}

// Len returns the number of recorded URLs.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.urls)
}

// Close closes the underlying log file.
func (s *SeenSet) Close() error {
	return s.file.Close()
}
