package vectorstore

import (
	"fmt"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// New creates the configured vector store backend.
func New(cfg config.VectorStoreConfig, logger *logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	switch cfg.Provider {
	case "qdrant":
		return NewQdrant(cfg.Qdrant, cfg.Collection, logger)
	case "chromem":
		return NewChromem(cfg.Chromem, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unsupported vectorstore provider: %q (supported: qdrant, chromem)", cfg.Provider)
	}
}
