package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// teiProvider talks to a Text Embeddings Inference server over HTTP.
type teiProvider struct {
	baseURL   string
	dimension int
	client    *http.Client
	logger    *logging.Logger
}

type teiRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

func newTEI(cfg config.EmbeddingsConfig, logger *logging.Logger) (Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: tei provider requires base_url", ErrEmbeddingUnavailable)
	}
	dim, err := ModelDimension(cfg.Model)
	if err != nil {
		return nil, err
	}

	return &teiProvider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		dimension: dim,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger.Named("tei"),
	}, nil
}

func (p *teiProvider) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return p.embed(ctx, texts)
}

func (p *teiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ErrEmbeddingUnavailable, len(vectors))
	}
	return vectors[0], nil
}

func (p *teiProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: tei returned %d: %s", ErrEmbeddingUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbeddingUnavailable, len(texts), len(vectors))
	}
	return vectors, nil
}

func (p *teiProvider) Dimension() int { return p.dimension }

func (p *teiProvider) Close() error { return nil }
