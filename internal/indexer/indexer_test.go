package indexer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/indexer"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

type fakeEmbedder struct {
	calls   int
	failing bool
}

func (f *fakeEmbedder) Dimension() int { return 3 }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++

	if f.failing {
		return nil, errors.New("embedding service unavailable")
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}

	return vectors, nil
}

type fakeStore struct {
	ensured    []int
	batches    [][]vectorstore.Point
	upsertFail bool
}

func (f *fakeStore) EnsureCollection(_ context.Context, dims int) error {
	f.ensured = append(f.ensured, dims)
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, points []vectorstore.Point) error {
	if f.upsertFail {
		return errors.New("bulk rejected")
	}

	f.batches = append(f.batches, points)

	return nil
}

func (f *fakeStore) allPoints() []vectorstore.Point {
	var all []vectorstore.Point
	for _, b := range f.batches {
		all = append(all, b...)
	}

	return all
}

func chunkLines(t *testing.T, n int) string {
	t.Helper()

	var sb strings.Builder

	for i := 0; i < n; i++ {
		rec := domain.ChunkRecord{
			SourceURL:  fmt.Sprintf("https://x.com/article-%d", i/3),
			Title:      "عنوان",
			ChunkIndex: i % 3,
			Text:       fmt.Sprintf("نص القطعة رقم %d", i),
		}

		b, err := json.Marshal(rec)
		require.NoError(t, err)

		sb.Write(b)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func TestRun_IndexesAllChunksInBatches(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	ix := indexer.New(emb, store, logger.NewNoop(), indexer.Options{BatchSize: 4})

	report, err := ix.Run(context.Background(), strings.NewReader(chunkLines(t, 10)))
	require.NoError(t, err)

	assert.Equal(t, 10, report.Indexed)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, []int{3}, store.ensured)
	assert.Len(t, store.allPoints(), 10)

	for _, p := range store.allPoints() {
		assert.NotEmpty(t, p.ID)
		assert.Len(t, p.Vector, 3)
		assert.NotEmpty(t, p.Payload.Text)
		assert.NotEmpty(t, p.Payload.Timestamp)
	}
}

func TestRun_LimitCheckedAfterBatch(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	ix := indexer.New(emb, store, logger.NewNoop(), indexer.Options{BatchSize: 4, Limit: 5})

	report, err := ix.Run(context.Background(), strings.NewReader(chunkLines(t, 20)))
	require.NoError(t, err)

	// The limit of 5 is crossed after the second full batch of 4.
	assert.Equal(t, 8, report.Indexed)
	assert.Equal(t, 2, report.Batches)
}

func TestRun_SkipsEmptyAndMalformed(t *testing.T) {
	input := strings.Join([]string{
		`{"url":"https://x.com/a","chunk_index":0,"text":""}`,
		`{not json`,
		`{"url":"https://x.com/a","chunk_index":1,"text":"نص صالح"}`,
	}, "\n")

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	ix := indexer.New(emb, store, logger.NewNoop(), indexer.Options{})

	report, err := ix.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.SkippedEmpty)
	assert.Equal(t, 1, report.SkippedBad)
}

func TestRun_EmbedFailureAbortsWithPartialReport(t *testing.T) {
	emb := &fakeEmbedder{failing: true}
	store := &fakeStore{}
	ix := indexer.New(emb, store, logger.NewNoop(), indexer.Options{BatchSize: 4})

	report, err := ix.Run(context.Background(), strings.NewReader(chunkLines(t, 10)))
	require.Error(t, err)

	assert.Equal(t, 0, report.Indexed)
	assert.Empty(t, store.batches)
}

func TestRun_UpsertFailureAborts(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{upsertFail: true}
	ix := indexer.New(emb, store, logger.NewNoop(), indexer.Options{BatchSize: 4})

	_, err := ix.Run(context.Background(), strings.NewReader(chunkLines(t, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert batch")
}

func TestRun_ReindexProducesSameIDs(t *testing.T) {
	input := chunkLines(t, 6)

	run := func() []string {
		store := &fakeStore{}
		ix := indexer.New(&fakeEmbedder{}, store, logger.NewNoop(), indexer.Options{BatchSize: 2})

		_, err := ix.Run(context.Background(), strings.NewReader(input))
		require.NoError(t, err)

		var ids []string
		for _, p := range store.allPoints() {
			ids = append(ids, p.ID)
		}

		return ids
	}

	assert.Equal(t, run(), run())
}

func TestPointID(t *testing.T) {
	a := indexer.PointID("https://x.com/a", 0, "نص")
	b := indexer.PointID("https://x.com/a", 0, "نص")
	assert.Equal(t, a, b)

	// Any component change yields a different ID.
	assert.NotEqual(t, a, indexer.PointID("https://x.com/b", 0, "نص"))
	assert.NotEqual(t, a, indexer.PointID("https://x.com/a", 1, "نص"))
	assert.NotEqual(t, a, indexer.PointID("https://x.com/a", 0, "نص آخر"))

	// IDs are decimal renderings of a uint64.
	_, err := strconv.ParseUint(a, 10, 64)
	assert.NoError(t, err)
}
