// Package indexer embeds prepared chunks and upserts them into the vector
// store in batches. Point IDs are derived from chunk identity, so re-running
// an index over the same corpus overwrites points instead of duplicating
// them.
package indexer

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/embedding"
	"github.com/3bdelKhale2/Link-chatbot/internal/jsonl"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

// DefaultBatchSize is the number of chunks embedded and upserted per round
// trip.
const DefaultBatchSize = 64

// Store is the subset of the vector store the indexer needs.
type Store interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, points []vectorstore.Point) error
}

// Options configures one indexing run.
type Options struct {
	// BatchSize is the number of chunks per embed+upsert round trip.
	BatchSize int
	// Limit stops the run once at least this many chunks have been indexed.
	// The check happens after a batch completes, so the run may index up to
	// one batch beyond the limit. Zero means no limit.
	Limit int
}

// Report summarizes one indexing run.
type Report struct {
	Indexed      int `json:"indexed"`
	Batches      int `json:"batches"`
	SkippedEmpty int `json:"skipped_empty"`
	SkippedBad   int `json:"skipped_bad"`
}

// Indexer drives the embed-and-upsert pipeline.
type Indexer struct {
	embedder embedding.Embedder
	store    Store
	log      logger.Interface
	opts     Options
}

// New creates an Indexer.
func New(embedder embedding.Embedder, store Store, log logger.Interface, opts Options) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	return &Indexer{
		embedder: embedder,
		store:    store,
		log:      log,
		opts:     opts,
	}
}

// Run streams chunk records from in, embeds them in batches, and upserts the
// resulting points. A batch that fails to embed or upsert aborts the run; the
// returned Report still counts the batches that landed.
func (ix *Indexer) Run(ctx context.Context, in io.Reader) (Report, error) {
	var report Report

	if err := ix.store.EnsureCollection(ctx, ix.embedder.Dimension()); err != nil {
		return report, fmt.Errorf("indexer: %w", err)
	}

	batch := make([]domain.ChunkRecord, 0, ix.opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := ix.indexBatch(ctx, batch); err != nil {
			return err
		}

		report.Indexed += len(batch)
		report.Batches++
		batch = batch[:0]

		return nil
	}

	skipped, err := jsonl.Decode(in, func(rec domain.ChunkRecord) error {
		if rec.Text == "" {
			report.SkippedEmpty++
			return nil
		}

		batch = append(batch, rec)

		if len(batch) < ix.opts.BatchSize {
			return nil
		}

		if flushErr := flush(); flushErr != nil {
			return flushErr
		}

		if ix.opts.Limit > 0 && report.Indexed >= ix.opts.Limit {
			return jsonl.ErrStop
		}

		return nil
	})
	report.SkippedBad = skipped

	if err != nil {
		return report, fmt.Errorf("indexer: %w", err)
	}

	if flushErr := flush(); flushErr != nil {
		return report, fmt.Errorf("indexer: %w", flushErr)
	}

	ix.log.Info("Indexing run complete",
		"indexed", report.Indexed,
		"batches", report.Batches,
		"skipped_empty", report.SkippedEmpty,
		"skipped_bad", report.SkippedBad)

	return report, nil
}

// indexBatch embeds one batch and upserts the resulting points.
func (ix *Indexer) indexBatch(ctx context.Context, batch []domain.ChunkRecord) error {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Text
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	if len(vectors) != len(batch) {
		return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
	}

	now := time.Now().UTC().Format(time.RFC3339)

	points := make([]vectorstore.Point, len(batch))
	for i, rec := range batch {
		points[i] = vectorstore.Point{
			ID:     PointID(rec.SourceURL, rec.ChunkIndex, rec.Text),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				Text:       rec.Text,
				Source:     rec.SourceURL,
				Title:      rec.Title,
				Published:  rec.Published,
				ChunkIndex: rec.ChunkIndex,
				Timestamp:  now,
			},
		}
	}

	if upsertErr := ix.store.Upsert(ctx, points); upsertErr != nil {
		return fmt.Errorf("upsert batch: %w", upsertErr)
	}

	return nil
}

// PointID derives a stable point identifier from chunk identity. The source
// URL, chunk index, and a digest of the text are hashed together; the first
// eight bytes, read big-endian, become a decimal uint64. Identical chunks
// always map to the same ID, and a changed text produces a new one.
func PointID(sourceURL string, chunkIndex int, text string) string {
	textSum := sha1.Sum([]byte(text))

	h := sha1.New()
	h.Write([]byte(sourceURL))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(chunkIndex)))
	h.Write([]byte("|"))
	h.Write([]byte(hex.EncodeToString(textSum[:])))

	sum := h.Sum(nil)

	return strconv.FormatUint(binary.BigEndian.Uint64(sum[:8]), 10)
}
