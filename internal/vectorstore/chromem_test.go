package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

func newTestChromem(t *testing.T) Store {
	t.Helper()
	store, err := NewChromem(config.ChromemConfig{Path: t.TempDir()}, "network_issues", logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollection(context.Background(), 3))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestChromem_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	records := []Record{
		{
			ID:     "11111111-1111-1111-1111-111111111111",
			Vector: []float32{1, 0, 0},
			Payload: map[string]string{
				"problem_text":  "interface errors on uplink",
				"solution_text": "replace the optic",
			},
		},
		{
			ID:     "22222222-2222-2222-2222-222222222222",
			Vector: []float32{0, 1, 0},
			Payload: map[string]string{
				"problem_text": "dhcp scope exhausted",
			},
		},
	}
	require.NoError(t, store.Upsert(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := store.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "11111111-1111-1111-1111-111111111111", results[0].ID)
	assert.Equal(t, "replace the optic", results[0].Payload["solution_text"])
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestChromem_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	rec := Record{
		ID:      "11111111-1111-1111-1111-111111111111",
		Vector:  []float32{1, 0, 0},
		Payload: map[string]string{"problem_text": "v1"},
	}
	require.NoError(t, store.Upsert(ctx, []Record{rec}))

	rec.Payload = map[string]string{"problem_text": "v2"}
	require.NoError(t, store.Upsert(ctx, []Record{rec}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v2", results[0].Payload["problem_text"])
}

func TestChromem_EmptyCollectionSearch(t *testing.T) {
	store := newTestChromem(t)

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromem_LimitCappedAtDocCount(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	require.NoError(t, store.Upsert(ctx, []Record{{
		ID:      "11111111-1111-1111-1111-111111111111",
		Vector:  []float32{1, 0, 0},
		Payload: map[string]string{"problem_text": "only one"},
	}}))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromem_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	err := store.Upsert(ctx, []Record{{
		ID:     "11111111-1111-1111-1111-111111111111",
		Vector: []float32{1, 0},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = store.Search(ctx, []float32{1, 0, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestChromem_SearchBeforeEnsureCollection(t *testing.T) {
	store, err := NewChromem(config.ChromemConfig{Path: t.TempDir()}, "network_issues", logging.NewNop())
	require.NoError(t, err)

	_, err = store.Search(context.Background(), []float32{1}, 1)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestChromem_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.ChromemConfig{Path: dir}

	store, err := NewChromem(cfg, "network_issues", logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollection(ctx, 3))
	require.NoError(t, store.Upsert(ctx, []Record{{
		ID:      "11111111-1111-1111-1111-111111111111",
		Vector:  []float32{0, 0, 1},
		Payload: map[string]string{"problem_text": "persisted"},
	}}))
	require.NoError(t, store.Close())

	reopened, err := NewChromem(cfg, "network_issues", logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, reopened.EnsureCollection(ctx, 3))

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChromem_ReopenWithDifferentDimensionRejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.ChromemConfig{Path: dir}

	store, err := NewChromem(cfg, "network_issues", logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollection(ctx, 4))
	require.NoError(t, store.Upsert(ctx, []Record{{
		ID:      "11111111-1111-1111-1111-111111111111",
		Vector:  []float32{1, 0, 0, 0},
		Payload: map[string]string{"problem_text": "indexed at four dimensions"},
	}}))
	require.NoError(t, store.Close())

	// Reconfiguring to a different embedding dimension must fail fast at
	// collection setup, not at query time.
	reopened, err := NewChromem(cfg, "network_issues", logging.NewNop())
	require.NoError(t, err)

	err = reopened.EnsureCollection(ctx, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	// The matching dimension is still accepted.
	require.NoError(t, reopened.EnsureCollection(ctx, 4))
}

func TestFactory(t *testing.T) {
	store, err := New(config.VectorStoreConfig{
		Provider:   "chromem",
		Collection: "network_issues",
		Chromem:    config.ChromemConfig{Path: t.TempDir()},
	}, nil)
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = New(config.VectorStoreConfig{Provider: "weaviate"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported vectorstore provider")
}
