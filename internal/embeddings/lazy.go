package embeddings

import (
	"context"
	"sync"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// Lazy defers provider construction to first use, so a server can start
// (and answer health checks) before the embedding model is loaded.
// Initialization happens once; a failed initialization is sticky.
type Lazy struct {
	cfg    config.EmbeddingsConfig
	logger *logging.Logger

	once     sync.Once
	provider Provider
	err      error
}

// NewLazy wraps provider construction for deferred initialization.
func NewLazy(cfg config.EmbeddingsConfig, logger *logging.Logger) *Lazy {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lazy{cfg: cfg, logger: logger}
}

func (l *Lazy) get() (Provider, error) {
	l.once.Do(func() {
		l.provider, l.err = New(l.cfg, l.logger)
	})
	return l.provider, l.err
}

func (l *Lazy) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	p, err := l.get()
	if err != nil {
		return nil, err
	}
	return p.EmbedPassages(ctx, texts)
}

func (l *Lazy) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	p, err := l.get()
	if err != nil {
		return nil, err
	}
	return p.EmbedQuery(ctx, text)
}

// Dimension reports the model's output dimension. It is derived from
// the model name so it does not force initialization.
func (l *Lazy) Dimension() int {
	dim, err := ModelDimension(l.cfg.Model)
	if err != nil {
		return 0
	}
	return dim
}

func (l *Lazy) Close() error {
	if l.provider == nil {
		return nil
	}
	return l.provider.Close()
}
