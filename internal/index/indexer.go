// Package index builds the vector index over the normalized corpus.
package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/corpus"
	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/vectorstore"
)

// defaultBatchSize bounds how many units are embedded and upserted at once.
const defaultBatchSize = 64

// Embedder is the indexing-side embedding dependency.
type Embedder interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Summary reports the outcome of an indexing run.
type Summary struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// Indexer embeds knowledge units and upserts them into the vector store.
// Unit IDs are stable, so re-running over the same corpus replaces
// records in place instead of duplicating them.
type Indexer struct {
	embedder  Embedder
	store     vectorstore.Store
	batchSize int
	logger    *logging.Logger
}

// NewIndexer creates an Indexer with the default batch size.
func NewIndexer(embedder Embedder, store vectorstore.Store, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: defaultBatchSize,
		logger:    logger.Named("index"),
	}
}

// Index embeds and upserts all units in batches. A failed batch is
// counted and skipped; dimension mismatches and an unreachable store
// abort the run, since every later batch would fail the same way.
func (ix *Indexer) Index(ctx context.Context, units []corpus.KnowledgeUnit) (Summary, error) {
	var sum Summary
	if len(units) == 0 {
		return sum, nil
	}

	dim := ix.embedder.Dimension()
	if dim <= 0 {
		return sum, errors.New("embedder reports no dimension")
	}
	if err := ix.store.EnsureCollection(ctx, dim); err != nil {
		return sum, fmt.Errorf("ensure collection: %w", err)
	}

	for start := 0; start < len(units); start += ix.batchSize {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		end := min(start+ix.batchSize, len(units))
		batch := units[start:end]

		if err := ix.indexBatch(ctx, batch, dim); err != nil {
			if errors.Is(err, vectorstore.ErrDimensionMismatch) || errors.Is(err, vectorstore.ErrStoreUnavailable) {
				return sum, err
			}
			ix.logger.Error(ctx, "batch failed, skipping",
				zap.Int("offset", start),
				zap.Int("size", len(batch)),
				zap.Error(err))
			sum.Failed += len(batch)
			continue
		}
		sum.Indexed += len(batch)
	}

	ix.logger.Info(ctx, "indexing complete",
		zap.Int("indexed", sum.Indexed),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []corpus.KnowledgeUnit, dim int) error {
	texts := make([]string, len(batch))
	for i, u := range batch {
		texts[i] = u.EmbedText()
	}

	vectors, err := ix.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d units", len(vectors), len(batch))
	}

	records := make([]vectorstore.Record, len(batch))
	for i, u := range batch {
		if len(vectors[i]) != dim {
			return fmt.Errorf("%w: unit %s embedded to %d dimensions, expected %d",
				vectorstore.ErrDimensionMismatch, u.UnitID, len(vectors[i]), dim)
		}
		records[i] = vectorstore.Record{
			ID:     u.UnitID,
			Vector: vectors[i],
			Payload: map[string]string{
				"unit_id":       u.UnitID,
				"source_id":     u.SourceID,
				"product_id":    u.ProductID,
				"problem_text":  u.ProblemText,
				"solution_text": u.SolutionText,
				"source_kind":   string(u.SourceKind),
			},
		}
	}

	if err := ix.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}
