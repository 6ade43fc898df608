//go:build cgo

package embeddings

import (
	"context"
	"fmt"
	"sync"

	"github.com/anush008/fastembed-go"
	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// passageBatchSize bounds memory during corpus indexing.
const passageBatchSize = 256

var fastEmbedModels = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseEN,
}

// fastEmbedProvider runs the embedding model in-process via ONNX runtime.
type fastEmbedProvider struct {
	model     *fastembed.FlagEmbedding
	dimension int
	logger    *logging.Logger

	mu sync.Mutex // fastembed sessions are not safe for concurrent use
}

func newFastEmbed(cfg config.EmbeddingsConfig, logger *logging.Logger) (Provider, error) {
	modelID, ok := fastEmbedModels[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no local ONNX mapping", ErrUnknownModel, cfg.Model)
	}
	dim, err := ModelDimension(cfg.Model)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "local_cache"
	}

	model, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                modelID,
		CacheDir:             cacheDir,
		MaxLength:            512,
		ShowDownloadProgress: boolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: initialize fastembed: %v", ErrEmbeddingUnavailable, err)
	}

	logger.Info(context.Background(), "fastembed model loaded",
		zap.String("model", cfg.Model),
		zap.Int("dimension", dim))

	return &fastEmbedProvider{model: model, dimension: dim, logger: logger.Named("fastembed")}, nil
}

func (p *fastEmbedProvider) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += passageBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+passageBatchSize, len(texts))

		vectors, err := p.model.PassageEmbed(texts[start:end], passageBatchSize)
		if err != nil {
			return nil, fmt.Errorf("embed passages: %w", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (p *fastEmbedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	vector, err := p.model.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}

func (p *fastEmbedProvider) Dimension() int { return p.dimension }

func (p *fastEmbedProvider) Close() error {
	p.model.Destroy()
	return nil
}

func boolPtr(b bool) *bool { return &b }
