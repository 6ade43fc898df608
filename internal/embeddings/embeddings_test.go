package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluecomlabs/netrod/internal/config"
)

func TestModelDimension(t *testing.T) {
	dim, err := ModelDimension("sentence-transformers/all-MiniLM-L6-v2")
	require.NoError(t, err)
	assert.Equal(t, 384, dim)

	_, err = ModelDimension("made-up/model")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(config.EmbeddingsConfig{Provider: "openai"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embeddings provider")
}

func TestTEI_RequiresBaseURL(t *testing.T) {
	_, err := New(config.EmbeddingsConfig{
		Provider: "tei",
		Model:    "sentence-transformers/all-MiniLM-L6-v2",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func teiTestServer(t *testing.T, handler http.HandlerFunc) Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(config.EmbeddingsConfig{
		Provider: "tei",
		Model:    "sentence-transformers/all-MiniLM-L6-v2",
		BaseURL:  srv.URL,
	}, nil)
	require.NoError(t, err)
	return p
}

func TestTEI_EmbedPassages(t *testing.T) {
	var gotInputs []string
	p := teiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)

		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInputs = req.Inputs
		assert.True(t, req.Truncate)

		vectors := make([][]float32, len(req.Inputs))
		for i := range vectors {
			vectors[i] = []float32{float32(i), 1}
		}
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	})

	vectors, err := p.EmbedPassages(context.Background(), []string{"bgp flap", "ospf adjacency down"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []string{"bgp flap", "ospf adjacency down"}, gotInputs)
	assert.Equal(t, []float32{1, 1}, vectors[1])

	assert.Equal(t, 384, p.Dimension())
}

func TestTEI_EmbedQuery(t *testing.T) {
	p := teiTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode([][]float32{{0.1, 0.2}}))
	})

	vector, err := p.EmbedQuery(context.Background(), "wifi drops every hour")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vector)
}

func TestTEI_ServerError(t *testing.T) {
	p := teiTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := p.EmbedQuery(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestTEI_CountMismatch(t *testing.T) {
	p := teiTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode([][]float32{{1}}))
	})

	_, err := p.EmbedPassages(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestTEI_EmptyInput(t *testing.T) {
	p := teiTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty input")
	})

	vectors, err := p.EmbedPassages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestLazy_InitErrorIsSticky(t *testing.T) {
	l := NewLazy(config.EmbeddingsConfig{Provider: "nope"}, nil)

	_, err := l.EmbedQuery(context.Background(), "q")
	require.Error(t, err)

	_, err2 := l.EmbedQuery(context.Background(), "q")
	assert.Equal(t, err.Error(), err2.Error())

	assert.NoError(t, l.Close())
}

func TestLazy_DimensionWithoutInit(t *testing.T) {
	l := NewLazy(config.EmbeddingsConfig{
		Provider: "tei",
		Model:    "sentence-transformers/all-MiniLM-L6-v2",
	}, nil)
	assert.Equal(t, 384, l.Dimension())
}
