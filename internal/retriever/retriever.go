// Package retriever answers similarity queries over the indexed corpus.
// Retrieval degrades to an empty result set on any failure: a chat turn with
// no context is preferable to a chat turn that errors out.
package retriever

import (
	"context"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/embedding"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

// DefaultTopK is the result count used when the caller passes zero.
const DefaultTopK = 5

// Searcher is the vector store surface the retriever needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Result, error)
}

// Retriever embeds a query and searches the vector store.
type Retriever struct {
	embedder embedding.Embedder
	store    Searcher
	log      logger.Interface
}

// New creates a Retriever.
func New(embedder embedding.Embedder, store Searcher, log logger.Interface) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		log:      log,
	}
}

// Search returns up to topK results most similar to the query, ordered by
// descending score. Any embedding or store failure is logged and yields an
// empty slice.
func (r *Retriever) Search(ctx context.Context, query string, topK int) []domain.SearchResult {
	if query == "" {
		return nil
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		r.log.Warn("Query embedding failed", "error", err)
		return nil
	}

	if len(vectors) != 1 {
		r.log.Warn("Query embedding returned unexpected vector count", "count", len(vectors))
		return nil
	}

	hits, err := r.store.Search(ctx, vectors[0], topK)
	if err != nil {
		r.log.Warn("Vector search failed", "error", err)
		return nil
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SearchResult{
			ID:    hit.ID,
			Score: hit.Score,
			Text:  hit.Payload.Text,
			Metadata: map[string]any{
				"source":      hit.Payload.Source,
				"title":       hit.Payload.Title,
				"published":   hit.Payload.Published,
				"chunk_index": hit.Payload.ChunkIndex,
			},
		})
	}

	return results
}
