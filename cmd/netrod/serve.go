package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	netrodhttp "github.com/bluecomlabs/netrod/internal/http"
	"github.com/bluecomlabs/netrod/internal/index"
	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the troubleshooting query server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := services.NewRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = registry.Close() }()

	// A missing or stale index is survivable: queries route low until
	// the operator runs the indexer.
	if err := registry.VerifyIndex(ctx, cfg.VectorStore, cfg.Embeddings.Model); err != nil {
		if errors.Is(err, index.ErrManifestMismatch) {
			return err
		}
		logger.Warn(ctx, "corpus index not ready; serving degraded answers", zap.Error(err))
	}

	server := netrodhttp.New(cfg.Server, registry.Troubleshoot, logger)
	return server.Start(ctx)
}
