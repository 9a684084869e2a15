package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/config"
	"github.com/talentsift/recommendd/internal/embeddings"
	"github.com/talentsift/recommendd/internal/logging"
	"github.com/talentsift/recommendd/internal/vectorstore"
)

var indexTimeout time.Duration

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the catalog snapshot",
	Long: `Load the catalog snapshot and (re)build the vector index. Run this
once before serving, and again whenever the snapshot changes.

Examples:
  # Index with defaults
  recommendd index

  # Index with a config file and a longer timeout
  recommendd index --config config.yaml --timeout 30m`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().DurationVar(&indexTimeout, "timeout", 15*time.Minute, "overall indexing timeout")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey,
	})
	if err != nil {
		return fmt.Errorf("init embeddings: %w", err)
	}

	store, err := vectorstore.NewStore(vectorstore.Config{
		Path:       cfg.VectorStore.Path,
		Collection: cfg.VectorStore.Collection,
		Compress:   cfg.VectorStore.Compress,
	}, embedder, logger)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}

	assessments, err := catalog.Load(cfg.Catalog.SnapshotPath, logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), indexTimeout)
	defer cancel()

	count, err := store.Index(ctx, assessments)
	if err != nil {
		return fmt.Errorf("index catalog: %w", err)
	}

	logger.Info("catalog indexed",
		zap.Int("assessments", count),
		zap.String("path", cfg.VectorStore.Path),
	)
	fmt.Printf("indexed %d assessments\n", count)
	return nil
}
