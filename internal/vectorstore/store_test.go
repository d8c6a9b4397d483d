package vectorstore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

// fakeES emulates the handful of Elasticsearch endpoints the store touches.
type fakeES struct {
	indexExists   bool
	createdBodies []string
	bulkBodies    []string
	searchBodies  []string
	searchReply   string
}

func (f *fakeES) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The v8 client refuses to talk to servers missing the product header.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		raw, _ := io.ReadAll(r.Body)
		body := string(raw)

		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/chunks":
			if !f.indexExists {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/chunks":
			f.indexExists = true
			f.createdBodies = append(f.createdBodies, body)
			fmt.Fprint(w, `{"acknowledged":true}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_bulk"):
			f.bulkBodies = append(f.bulkBodies, body)
			fmt.Fprint(w, `{"errors":false,"items":[]}`)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			f.searchBodies = append(f.searchBodies, body)
			fmt.Fprint(w, f.searchReply)
		case strings.HasSuffix(r.URL.Path, "/_count"):
			fmt.Fprint(w, `{"count":7}`)
		default:
			fmt.Fprint(w, `{}`)
		}
	})
}

func newTestStore(t *testing.T, fake *fakeES) *vectorstore.Store {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return vectorstore.NewStore(client, "chunks", logger.NewNoop())
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	fake := &fakeES{}
	store := newTestStore(t, fake)

	require.NoError(t, store.EnsureCollection(context.Background(), 768))
	require.Len(t, fake.createdBodies, 1)

	var mapping map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.createdBodies[0]), &mapping))

	props := mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	embedding := props["embedding"].(map[string]any)

	assert.Equal(t, "dense_vector", embedding["type"])
	assert.Equal(t, float64(768), embedding["dims"])
	assert.Equal(t, "cosine", embedding["similarity"])
}

func TestEnsureCollection_NoopWhenPresent(t *testing.T) {
	fake := &fakeES{indexExists: true}
	store := newTestStore(t, fake)

	require.NoError(t, store.EnsureCollection(context.Background(), 768))
	assert.Empty(t, fake.createdBodies)
}

func TestUpsert_WritesBulkPairs(t *testing.T) {
	fake := &fakeES{indexExists: true}
	store := newTestStore(t, fake)

	points := []vectorstore.Point{
		{
			ID:     "42",
			Vector: []float32{0.1, 0.2},
			Payload: vectorstore.Payload{
				Text:       "نص المقال",
				Source:     "https://x.com/a",
				Title:      "عنوان",
				ChunkIndex: 0,
			},
		},
	}

	require.NoError(t, store.Upsert(context.Background(), points))
	require.Len(t, fake.bulkBodies, 1)

	lines := strings.Split(strings.TrimSpace(fake.bulkBodies[0]), "\n")
	require.Len(t, lines, 2)

	var action map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &action))
	assert.Equal(t, "42", action["index"]["_id"])

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "نص المقال", doc["text"])
	assert.Equal(t, "https://x.com/a", doc["source"])
}

func TestUpsert_EmptyBatchIsNoop(t *testing.T) {
	fake := &fakeES{indexExists: true}
	store := newTestStore(t, fake)

	require.NoError(t, store.Upsert(context.Background(), nil))
	assert.Empty(t, fake.bulkBodies)
}

func TestSearch_DecodesHits(t *testing.T) {
	fake := &fakeES{
		indexExists: true,
		searchReply: `{"hits":{"hits":[
			{"_id":"1","_score":0.93,"_source":{"text":"الأهلي يفوز","source":"https://x.com/a","title":"خبر","chunk_index":0}},
			{"_id":"2","_score":0.71,"_source":{"text":"الزمالك يتعادل","source":"https://x.com/b","title":"خبر آخر","chunk_index":1}}
		]}}`,
	}
	store := newTestStore(t, fake)

	results, err := store.Search(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "1", results[0].ID)
	assert.InDelta(t, 0.93, results[0].Score, 1e-9)
	assert.Equal(t, "الأهلي يفوز", results[0].Payload.Text)
	assert.Equal(t, 1, results[1].Payload.ChunkIndex)

	// The query must be a kNN search over the embedding field.
	require.Len(t, fake.searchBodies, 1)

	var query map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.searchBodies[0]), &query))

	knn := query["knn"].(map[string]any)
	assert.Equal(t, "embedding", knn["field"])
	assert.Equal(t, float64(5), knn["k"])
}

func TestSearch_MissingCollection(t *testing.T) {
	fake := &fakeES{}
	store := newTestStore(t, fake)

	_, err := store.Search(context.Background(), []float32{0.1}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestCount(t *testing.T) {
	fake := &fakeES{indexExists: true}
	store := newTestStore(t, fake)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
