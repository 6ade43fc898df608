package generate

import (
	"context"
	"sync"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// Lazy defers backend construction to the first generation call, so the
// server starts even when the model endpoint is down. A failed
// initialization is sticky.
type Lazy struct {
	cfg    config.GenerationConfig
	logger *logging.Logger

	once      sync.Once
	generator Generator
	err       error
}

// NewLazy wraps generator construction for deferred initialization.
func NewLazy(cfg config.GenerationConfig, logger *logging.Logger) *Lazy {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lazy{cfg: cfg, logger: logger}
}

func (l *Lazy) get() (Generator, error) {
	l.once.Do(func() {
		l.generator, l.err = New(l.cfg, l.logger)
	})
	return l.generator, l.err
}

func (l *Lazy) WithContext(ctx context.Context, query string, snippets []ContextSnippet) (string, error) {
	g, err := l.get()
	if err != nil {
		return "", err
	}
	return g.WithContext(ctx, query, snippets)
}

func (l *Lazy) General(ctx context.Context, query string) (string, error) {
	g, err := l.get()
	if err != nil {
		return "", err
	}
	return g.General(ctx, query)
}
