package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/corpus"
	"github.com/bluecomlabs/netrod/internal/embeddings"
	"github.com/bluecomlabs/netrod/internal/index"
	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/vectorstore"
)

var (
	techDocsPath     string
	techDocsMetaPath string
	incidentsPath    string
	incidentsMeta    string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Normalize CSV exports and build the corpus index",
	Long: `Index merges technical document and incident ticket exports into a
normalized corpus, embeds every record, and upserts it into the vector
store. Re-running over the same exports replaces records in place.

Examples:
  netrod index --tech-docs docs.csv --tech-docs-meta docs_meta.csv
  netrod index --tech-docs docs.csv --incidents tickets.csv`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&techDocsPath, "tech-docs", "", "technical documents CSV")
	indexCmd.Flags().StringVar(&techDocsMetaPath, "tech-docs-meta", "", "technical documents metadata CSV")
	indexCmd.Flags().StringVar(&incidentsPath, "incidents", "", "incident tickets CSV")
	indexCmd.Flags().StringVar(&incidentsMeta, "incidents-meta", "", "incident tickets metadata CSV")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if techDocsPath == "" && incidentsPath == "" {
		return errors.New("at least one of --tech-docs or --incidents is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()

	sources, err := loadSources()
	if err != nil {
		return err
	}

	units, report, err := corpus.NewNormalizer(logger).Normalize(ctx, sources)
	if err != nil && len(units) == 0 {
		return err
	}
	if err != nil {
		logger.Warn(ctx, "some source families failed, indexing the rest", zap.Error(err))
	}
	logger.Info(ctx, "corpus normalized",
		zap.Int("units", len(units)),
		zap.Int("rows", report.Total),
		zap.Int("with_both", report.WithBoth),
		zap.Int("dropped", report.Dropped))

	embedder, err := embeddings.New(cfg.Embeddings, logger)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	store, err := vectorstore.New(cfg.VectorStore, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary, err := index.NewIndexer(embedder, store, logger).Index(ctx, units)
	if err != nil {
		return err
	}

	manifestPath, err := config.ExpandPath(cfg.VectorStore.ManifestPath)
	if err != nil {
		return err
	}
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if err := index.WriteManifest(manifestPath, index.Manifest{
		Model:     cfg.Embeddings.Model,
		Dimension: embedder.Dimension(),
		Count:     count,
		IndexedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	fmt.Printf("Indexed %d units (%d failed) into %q; %d records total.\n",
		summary.Indexed, summary.Failed, cfg.VectorStore.Collection, count)
	return nil
}

func loadSources() ([]corpus.Source, error) {
	var sources []corpus.Source

	add := func(adapter *corpus.Adapter, basePath, metaPath string) error {
		if basePath == "" {
			return nil
		}
		base, err := corpus.LoadCSVTable(basePath)
		if err != nil {
			return err
		}
		src := corpus.Source{Adapter: adapter, Base: base}
		if metaPath != "" {
			meta, err := corpus.LoadCSVTable(metaPath)
			if err != nil {
				return err
			}
			src.Meta = &meta
		}
		sources = append(sources, src)
		return nil
	}

	if err := add(corpus.NewTechDocAdapter(), techDocsPath, techDocsMetaPath); err != nil {
		return nil, err
	}
	if err := add(corpus.NewIncidentAdapter(), incidentsPath, incidentsMeta); err != nil {
		return nil, err
	}
	return sources, nil
}
