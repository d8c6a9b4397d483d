package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/retriever"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Dimension() int { return 2 }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}

	return vectors, nil
}

type stubSearcher struct {
	hits     []vectorstore.Result
	err      error
	gotTopK  int
	gotCalls int
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, topK int) ([]vectorstore.Result, error) {
	s.gotCalls++
	s.gotTopK = topK

	return s.hits, s.err
}

func TestSearch_ReturnsResults(t *testing.T) {
	store := &stubSearcher{hits: []vectorstore.Result{
		{ID: "1", Score: 0.9, Payload: vectorstore.Payload{Text: "الأهلي يفوز", Source: "https://x.com/a", Title: "خبر"}},
		{ID: "2", Score: 0.5, Payload: vectorstore.Payload{Text: "الزمالك يتعادل", Source: "https://x.com/b"}},
	}}

	r := retriever.New(&stubEmbedder{}, store, logger.NewNoop())

	results := r.Search(context.Background(), "نتيجة الأهلي", 3)
	require.Len(t, results, 2)

	assert.Equal(t, "الأهلي يفوز", results[0].Text)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	assert.Equal(t, "https://x.com/a", results[0].Metadata["source"])
	assert.Equal(t, 3, store.gotTopK)
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	store := &stubSearcher{}
	r := retriever.New(&stubEmbedder{}, store, logger.NewNoop())

	assert.Empty(t, r.Search(context.Background(), "", 5))
	assert.Zero(t, store.gotCalls)
}

func TestSearch_DefaultTopK(t *testing.T) {
	store := &stubSearcher{}
	r := retriever.New(&stubEmbedder{}, store, logger.NewNoop())

	r.Search(context.Background(), "سؤال", 0)
	assert.Equal(t, retriever.DefaultTopK, store.gotTopK)
}

func TestSearch_EmbedErrorYieldsEmpty(t *testing.T) {
	store := &stubSearcher{}
	r := retriever.New(&stubEmbedder{err: errors.New("down")}, store, logger.NewNoop())

	assert.Empty(t, r.Search(context.Background(), "سؤال", 5))
	assert.Zero(t, store.gotCalls)
}

func TestSearch_StoreErrorYieldsEmpty(t *testing.T) {
	store := &stubSearcher{err: errors.New("index missing")}
	r := retriever.New(&stubEmbedder{}, store, logger.NewNoop())

	assert.Empty(t, r.Search(context.Background(), "سؤال", 5))
	assert.Equal(t, 1, store.gotCalls)
}
