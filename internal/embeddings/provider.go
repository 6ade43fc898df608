// Package embeddings provides text embedding for corpus indexing and
// query retrieval.
//
// Two providers are supported: fastembed runs the ONNX model in-process
// (requires cgo), tei talks to a Text Embeddings Inference HTTP server.
// Both produce the same vectors for the same model, so an index built
// with one can be queried with the other.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

var (
	// ErrEmbeddingUnavailable indicates the embedding capability could not
	// be initialized or reached.
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")

	// ErrUnknownModel indicates a model name with no known dimension.
	ErrUnknownModel = errors.New("unknown embedding model")
)

// Provider embeds text into dense vectors.
//
// EmbedPassages is the indexing path and may batch internally;
// EmbedQuery is the retrieval path and applies the model's query
// prefix where the model distinguishes the two.
type Provider interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Close() error
}

// modelDimensions maps supported model names to their output dimension.
var modelDimensions = map[string]int{
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-base-en-v1.5":                  768,
}

// ModelDimension returns the output dimension for a supported model.
func ModelDimension(model string) (int, error) {
	dim, ok := modelDimensions[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return dim, nil
}

// New creates the configured embedding provider.
func New(cfg config.EmbeddingsConfig, logger *logging.Logger) (Provider, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	switch cfg.Provider {
	case "fastembed":
		return newFastEmbed(cfg, logger)
	case "tei":
		return newTEI(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %q (supported: fastembed, tei)", cfg.Provider)
	}
}
