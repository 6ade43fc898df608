// Package services wires the troubleshooting pipeline from
// configuration and owns dependency lifecycles.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/embeddings"
	"github.com/bluecomlabs/netrod/internal/feedback"
	"github.com/bluecomlabs/netrod/internal/generate"
	"github.com/bluecomlabs/netrod/internal/index"
	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/retriever"
	"github.com/bluecomlabs/netrod/internal/troubleshoot"
	"github.com/bluecomlabs/netrod/internal/vectorstore"
)

// Registry holds the assembled query-path services.
type Registry struct {
	Troubleshoot *troubleshoot.Service
	Store        vectorstore.Store

	embedder *embeddings.Lazy
	recorder *feedback.Recorder
	logger   *logging.Logger
}

// NewRegistry builds the query pipeline: store, lazy embedding and
// generation capabilities, retriever, feedback recorder, and the
// troubleshooting service on top.
func NewRegistry(cfg *config.Config, logger *logging.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := vectorstore.New(cfg.VectorStore, logger)
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	embedder := embeddings.NewLazy(cfg.Embeddings, logger)
	generator := generate.NewLazy(cfg.Generation, logger)

	var forwarder feedback.Forwarder
	if cfg.Feedback.NATSURL != "" {
		forwarder, err = feedback.NewNATSForwarder(cfg.Feedback.NATSURL, cfg.Feedback.Bucket, logger)
		if err != nil {
			// Forwarding is best-effort; run with the local log only.
			logger.Warn(context.Background(), "feedback forwarding disabled", zap.Error(err))
			forwarder = nil
		}
	}
	recorder, err := feedback.NewRecorder(cfg.Feedback.LogPath, forwarder, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create feedback recorder: %w", err)
	}

	svc := troubleshoot.New(
		cfg.Routing,
		retriever.New(embedder, store, logger),
		generator,
		recorder,
		logger,
	)

	return &Registry{
		Troubleshoot: svc,
		Store:        store,
		embedder:     embedder,
		recorder:     recorder,
		logger:       logger,
	}, nil
}

// VerifyIndex checks the corpus manifest against the configured model
// and opens the collection. A missing manifest is reported so the
// operator knows to run the indexer; the server still starts and serves
// degraded (low confidence) answers.
func (r *Registry) VerifyIndex(ctx context.Context, cfg config.VectorStoreConfig, model string) error {
	manifestPath, err := config.ExpandPath(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("expand manifest path: %w", err)
	}

	manifest, err := index.ReadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := manifest.Verify(model, cfg.VectorSize); err != nil {
		return err
	}

	if err := r.Store.EnsureCollection(ctx, manifest.Dimension); err != nil {
		return err
	}

	count, err := r.Store.Count(ctx)
	if err != nil {
		return err
	}
	if count != manifest.Count {
		r.logger.Warn(ctx, "collection count differs from manifest",
			zap.Int("collection", count),
			zap.Int("manifest", manifest.Count))
	}

	r.logger.Info(ctx, "corpus index verified",
		zap.String("model", manifest.Model),
		zap.Int("dimension", manifest.Dimension),
		zap.Int("count", count))
	return nil
}

// Close releases all held resources.
func (r *Registry) Close() error {
	return errors.Join(
		r.recorder.Close(),
		r.embedder.Close(),
		r.Store.Close(),
	)
}
