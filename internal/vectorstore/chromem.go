package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// chromemStore is the embedded offline backend, persisted to local disk.
// All vectors are computed by the caller, so the collection's embedding
// func is never invoked.
type chromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dimension  int
	logger     *logging.Logger

	mu sync.Mutex
}

// NewChromem opens (or creates) the persistent database at cfg.Path and
// returns a Store bound to the given collection.
func NewChromem(cfg config.ChromemConfig, collection string, logger *logging.Logger) (Store, error) {
	path, err := config.ExpandPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("expand store path: %w", err)
	}

	db, err := chromem.NewPersistentDB(path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("%w: open chromem db: %v", ErrStoreUnavailable, err)
	}

	return &chromemStore{
		db:     db,
		name:   collection,
		logger: logger.Named("chromem"),
	}, nil
}

// externalEmbeddings rejects any attempt to embed inside the store.
func externalEmbeddings(context.Context, string) ([]float32, error) {
	return nil, errors.New("embeddings must be provided by the caller")
}

func (s *chromemStore) EnsureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.db.GetOrCreateCollection(s.name, nil, externalEmbeddings)
	if err != nil {
		return fmt.Errorf("%w: get collection: %v", ErrStoreUnavailable, err)
	}

	// A persisted collection must match the requested dimension; probe
	// with a vector of the requested size before adopting it.
	if collection.Count() > 0 {
		probe := make([]float32, dimension)
		probe[0] = 1
		if _, err := collection.QueryEmbedding(ctx, probe, 1, nil, nil); err != nil {
			return fmt.Errorf("%w: collection %q was not built with %d dimensions: %v",
				ErrDimensionMismatch, s.name, dimension, err)
		}
	}

	s.collection = collection
	s.dimension = dimension

	s.logger.Debug(ctx, "collection ready",
		zap.String("collection", s.name),
		zap.Int("documents", collection.Count()))
	return nil
}

func (s *chromemStore) getCollection() (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, s.name)
	}
	return s.collection, nil
}

func (s *chromemStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	collection, err := s.getCollection()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, rec := range records {
		if s.dimension > 0 && len(rec.Vector) != s.dimension {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				ErrDimensionMismatch, rec.ID, len(rec.Vector), s.dimension)
		}
		docs = append(docs, chromem.Document{
			ID:        rec.ID,
			Content:   rec.Payload["problem_text"],
			Metadata:  rec.Payload,
			Embedding: rec.Vector,
		})
	}

	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *chromemStore) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	collection, err := s.getCollection()
	if err != nil {
		return nil, err
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	// chromem rejects k larger than the document count.
	docCount := collection.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if limit > docCount {
		limit = docCount
	}

	hits, err := collection.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			ID:      h.ID,
			Score:   float64(h.Similarity),
			Payload: h.Metadata,
		})
	}
	return results, nil
}

func (s *chromemStore) Count(context.Context) (int, error) {
	collection, err := s.getCollection()
	if err != nil {
		return 0, err
	}
	return collection.Count(), nil
}

func (s *chromemStore) Close() error { return nil }
