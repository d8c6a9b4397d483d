package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

// DefaultTimeout bounds individual store operations.
const DefaultTimeout = 30 * time.Second

// ErrCollectionNotFound is returned when an operation targets an index that
// does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// Payload is the metadata stored alongside each vector.
type Payload struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Title      string `json:"title"`
	Published  string `json:"published"`
	ChunkIndex int    `json:"chunk_index"`
	Timestamp  string `json:"timestamp"`
}

// Point is one embedded chunk ready for upsert. ID must be stable across
// runs so re-indexing the same chunk overwrites rather than duplicates.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Result is one similarity hit.
type Result struct {
	ID      string
	Score   float64
	Payload Payload
}

// Store wraps an Elasticsearch index holding embedded chunks.
type Store struct {
	client *es.Client
	index  string
	log    logger.Interface
}

// NewStore creates a Store over the given index.
func NewStore(client *es.Client, index string, log logger.Interface) *Store {
	return &Store{
		client: client,
		index:  index,
		log:    log,
	}
}

// Index returns the index name this store writes to.
func (s *Store) Index() string { return s.index }

// EnsureCollection creates the index with a cosine dense_vector mapping if it
// does not already exist. Calling it against an existing index is a no-op, so
// indexing runs can call it unconditionally.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
				"text":        map[string]any{"type": "text"},
				"source":      map[string]any{"type": "keyword"},
				"title":       map[string]any{"type": "text"},
				"published":   map[string]any{"type": "keyword"},
				"chunk_index": map[string]any{"type": "integer"},
				"timestamp":   map[string]any{"type": "date"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("error marshaling index mapping: %w", err)
	}

	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	s.log.Info("Created vector index", "index", s.index, "dims", dims)

	return nil
}

// Upsert writes points in one bulk request, overwriting documents that share
// an ID.
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var buf bytes.Buffer

	for _, p := range points {
		action := map[string]any{
			"index": map[string]any{"_index": s.index, "_id": p.ID},
		}

		doc := map[string]any{
			"embedding":   p.Vector,
			"text":        p.Payload.Text,
			"source":      p.Payload.Source,
			"title":       p.Payload.Title,
			"published":   p.Payload.Published,
			"chunk_index": p.Payload.ChunkIndex,
			"timestamp":   p.Payload.Timestamp,
		}

		for _, line := range []any{action, doc} {
			encoded, err := json.Marshal(line)
			if err != nil {
				return fmt.Errorf("error marshaling bulk line: %w", err)
			}

			buf.Write(encoded)
			buf.WriteByte('\n')
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
	)
	if err != nil {
		return fmt.Errorf("error executing bulk upsert: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk upsert error: %s", res.String())
	}

	var bulkResult bulkResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&bulkResult); decodeErr != nil {
		return fmt.Errorf("error decoding bulk response: %w", decodeErr)
	}

	if bulkResult.Errors {
		reasons := bulkResult.failureReasons()
		return fmt.Errorf("bulk upsert rejected %d documents: %s", len(reasons), strings.Join(reasons, "; "))
	}

	return nil
}

// bulkResponse is the subset of the bulk API response needed to surface
// per-document failures.
type bulkResponse struct {
	Errors bool                      `json:"errors"`
	Items  []map[string]bulkItemInfo `json:"items"`
}

type bulkItemInfo struct {
	Status int `json:"status"`
	Error  *struct {
		Reason string `json:"reason"`
	} `json:"error"`
}

func (r *bulkResponse) failureReasons() []string {
	var reasons []string

	for _, item := range r.Items {
		for _, detail := range item {
			if detail.Error != nil {
				reasons = append(reasons, detail.Error.Reason)
			}
		}
	}

	return reasons
}

// Search runs a kNN query and returns up to topK hits ordered by score.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, s.index)
	}

	query := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 10,
		},
		"size":    topK,
		"_source": []string{"text", "source", "title", "published", "chunk_index", "timestamp"},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("error marshaling search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source Payload `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&searchResult); decodeErr != nil {
		return nil, fmt.Errorf("error decoding search response: %w", decodeErr)
	}

	results := make([]Result, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		results = append(results, Result{
			ID:      hit.ID,
			Score:   hit.Score,
			Payload: hit.Source,
		})
	}

	return results, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.index),
	)
	if err != nil {
		return 0, fmt.Errorf("error executing count: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count error: %s", res.String())
	}

	var result struct {
		Count int64 `json:"count"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&result); decodeErr != nil {
		return 0, fmt.Errorf("error decoding count response: %w", decodeErr)
	}

	return result.Count, nil
}

// collectionExists checks whether the index exists.
func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	return !res.IsError(), nil
}
