//go:build !cgo

package embeddings

import (
	"fmt"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// Without cgo the ONNX runtime cannot be linked; builds in this mode
// must use the tei provider.
func newFastEmbed(_ config.EmbeddingsConfig, _ *logging.Logger) (Provider, error) {
	return nil, fmt.Errorf("%w: fastembed requires cgo; use the tei provider", ErrEmbeddingUnavailable)
}
