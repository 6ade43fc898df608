// Package vectorstore provides vector persistence and similarity search
// over the indexed troubleshooting corpus.
//
// Two backends are supported: qdrant (gRPC, external service) and
// chromem (embedded, persisted to local disk). Chromem is the offline
// mode; it needs no running service and is the default.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable indicates the backend cannot be reached. Query
	// paths treat this as a degraded condition, not a hard failure.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the collection.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCollectionNotFound indicates the corpus collection has not been
	// created yet; run the indexer first.
	ErrCollectionNotFound = errors.New("collection not found")
)

// Record is one stored corpus vector with its payload.
type Record struct {
	// ID must be a UUID; both backends use it as the point identifier.
	ID      string
	Vector  []float32
	Payload map[string]string
}

// SearchResult is one similarity hit.
type SearchResult struct {
	ID      string
	Score   float64 // cosine similarity, higher is closer
	Payload map[string]string
}

// Store persists and searches corpus vectors for a single collection.
type Store interface {
	// EnsureCollection creates the collection with the given vector
	// dimension if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Search returns up to limit nearest records by cosine similarity,
	// best first. An empty collection yields an empty slice.
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
