package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/config"
	"github.com/talentsift/recommendd/internal/embeddings"
	"github.com/talentsift/recommendd/internal/engine"
	"github.com/talentsift/recommendd/internal/extraction"
	"github.com/talentsift/recommendd/internal/fetcher"
	"github.com/talentsift/recommendd/internal/general"
	"github.com/talentsift/recommendd/internal/httpapi"
	"github.com/talentsift/recommendd/internal/intent"
	"github.com/talentsift/recommendd/internal/llm"
	"github.com/talentsift/recommendd/internal/logging"
	"github.com/talentsift/recommendd/internal/session"
	"github.com/talentsift/recommendd/internal/vectorstore"
	"github.com/talentsift/recommendd/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recommendation HTTP server",
	Long: `Start the HTTP server serving recommendation, chat, search and
catalog management endpoints.

Examples:
  # Serve with defaults (config from environment)
  recommendd serve

  # Serve with a config file
  recommendd serve --config config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	app, err := buildApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server, err := httpapi.NewServer(
		app.Executor,
		app.Store,
		app.Refresher,
		app.Sessions,
		logger,
		&httpapi.Config{
			Host:          cfg.Server.Host,
			Port:          cfg.Server.Port,
			RefreshAPIKey: cfg.Server.RefreshAPIKey,
		},
	)
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// application bundles the wired components behind the HTTP layer.
type application struct {
	Executor  *workflow.Executor
	Store     *vectorstore.Store
	Refresher *catalogRefresher
	Sessions  *session.Store

	logger *zap.Logger
}

// Close releases resources owned by the application.
func (a *application) Close() {
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			a.logger.Warn("closing session store", zap.Error(err))
		}
	}
}

// buildApplication wires every pipeline component from config.
func buildApplication(cfg *config.Config, logger *zap.Logger) (*application, error) {
	client, err := llm.New(llm.Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init embeddings: %w", err)
	}

	store, err := vectorstore.NewStore(vectorstore.Config{
		Path:       cfg.VectorStore.Path,
		Collection: cfg.VectorStore.Collection,
		Compress:   cfg.VectorStore.Compress,
	}, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	maxRetries := cfg.LLM.MaxRetries

	classifier := intent.NewClassifier(client, maxRetries, logger)
	detector := extraction.NewURLDetector(client, maxRetries, logger)
	enhancer := extraction.NewEnhancer(client, maxRetries, logger)
	jdFetcher := fetcher.New(time.Duration(cfg.Fetcher.TimeoutSeconds)*time.Second, logger)

	reranker := engine.NewReranker(client, maxRetries, logger)
	recommender := engine.New(store, reranker, engine.Config{
		TopKRetrieve: cfg.Engine.TopKRetrieve,
		MinSelect:    cfg.Engine.MinSelect,
		MaxSelect:    cfg.Engine.MaxSelect,
	}, logger)

	answerer := general.NewAnswerer(client, store, logger)

	executor := workflow.NewExecutor(
		classifier,
		detector,
		jdFetcher,
		enhancer,
		recommender,
		answerer,
		logger,
	)

	var sessions *session.Store
	if cfg.Session.DBPath != "" {
		sessions, err = session.NewStore(cfg.Session.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
	}

	return &application{
		Executor: executor,
		Store:    store,
		Refresher: &catalogRefresher{
			snapshotPath: cfg.Catalog.SnapshotPath,
			indexer:      store,
			logger:       logger,
		},
		Sessions: sessions,
		logger:   logger,
	}, nil
}

// catalogRefresher reloads the catalog snapshot and rebuilds the index.
type catalogRefresher struct {
	snapshotPath string
	indexer      vectorstore.Indexer
	logger       *zap.Logger
}

var _ httpapi.Refresher = (*catalogRefresher)(nil)

func (r *catalogRefresher) Refresh(ctx context.Context) (int, error) {
	assessments, err := catalog.Load(r.snapshotPath, r.logger)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	count, err := r.indexer.Index(ctx, assessments)
	if err != nil {
		return 0, fmt.Errorf("index catalog: %w", err)
	}
	r.logger.Info("catalog reindexed", zap.Int("assessments", count))
	return count, nil
}
