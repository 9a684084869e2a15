package vectorstore

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
)

var tracer = otel.Tracer("recommendd.vectorstore")

// Config holds configuration for the chromem-backed assessment index.
type Config struct {
	// Path is the directory for persistent storage.
	Path string

	// Collection is the collection name. Default: "assessments".
	Collection string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "./storage/vectorstore"
	}
	if c.Collection == "" {
		c.Collection = "assessments"
	}
}

// Store implements Searcher and Indexer using chromem-go, an embeddable
// pure-Go vector database with gob-file persistence. Cosine similarity
// is reported as 1 - distance, so scores fall in [0,1] with higher
// meaning closer.
type Store struct {
	db       *chromem.DB
	embedder Embedder
	config   Config
	logger   *zap.Logger

	// mu serializes index rebuilds; reads go straight to chromem,
	// which is safe for concurrent use.
	mu       sync.Mutex
	indexing bool
}

// NewStore creates a Store with the given configuration.
func NewStore(cfg Config, embedder Embedder, logger *zap.Logger) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", cfg.Path, err)
	}

	db, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	s := &Store{
		db:       db,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}

	logger.Info("vector store initialized",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
		zap.Bool("compress", cfg.Compress),
	)

	return s, nil
}

// embeddingFunc adapts the Embedder interface to chromem.
func (s *Store) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func (s *Store) collection() (*chromem.Collection, error) {
	return s.db.GetOrCreateCollection(s.config.Collection, nil, s.embeddingFunc())
}

// Index replaces the collection contents with the given assessments.
// Only one rebuild may run at a time; concurrent calls get
// ErrIndexInProgress instead of queueing.
func (s *Store) Index(ctx context.Context, assessments []catalog.Assessment) (int, error) {
	ctx, span := tracer.Start(ctx, "vectorstore.Index")
	defer span.End()
	span.SetAttributes(attribute.Int("assessments.count", len(assessments)))

	if len(assessments) == 0 {
		return 0, ErrEmptyCatalog
	}

	s.mu.Lock()
	if s.indexing {
		s.mu.Unlock()
		return 0, ErrIndexInProgress
	}
	s.indexing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.indexing = false
		s.mu.Unlock()
	}()

	texts := make([]string, len(assessments))
	for i, a := range assessments {
		texts[i] = a.ToEmbeddingText()
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return 0, fmt.Errorf("embedding catalog: %w", err)
	}
	if len(vectors) != len(assessments) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(assessments))
	}

	// Drop and recreate so removed catalog entries disappear.
	if err := s.db.DeleteCollection(s.config.Collection); err != nil {
		s.logger.Debug("delete collection before rebuild", zap.Error(err))
	}

	col, err := s.collection()
	if err != nil {
		return 0, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, len(assessments))
	for i, a := range assessments {
		docs[i] = chromem.Document{
			ID:        documentID(a.URL),
			Content:   texts[i],
			Embedding: vectors[i],
			Metadata:  assessmentMetadata(a),
		}
	}

	if err := col.AddDocuments(ctx, docs, 4); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add documents failed")
		return 0, fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Info("catalog indexed", zap.Int("count", len(docs)))
	return len(docs), nil
}

// Search returns up to k candidates ordered by similarity score descending.
// Scores are cosine similarities in [0,1] (1 - distance).
func (s *Store) Search(ctx context.Context, query string, k int) ([]catalog.Candidate, error) {
	ctx, span := tracer.Start(ctx, "vectorstore.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	col, err := s.collection()
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}

	count := col.Count()
	if count == 0 {
		return []catalog.Candidate{}, nil
	}
	if k > count {
		k = count
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	candidates := make([]catalog.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, catalog.Candidate{
			Assessment:      assessmentFromMetadata(r.Metadata),
			SimilarityScore: float64(r.Similarity),
		})
	}
	return candidates, nil
}

// Count returns the number of indexed assessments.
func (s *Store) Count() int {
	col, err := s.collection()
	if err != nil {
		return 0
	}
	return col.Count()
}

// documentID derives a stable chromem ID from the assessment URL.
func documentID(url string) string {
	id := strings.TrimPrefix(url, "https://")
	id = strings.TrimPrefix(id, "http://")
	return strings.ReplaceAll(id, "/", "_")
}

const unknownDuration = -1

// assessmentMetadata flattens an assessment into chromem string metadata.
func assessmentMetadata(a catalog.Assessment) map[string]string {
	duration := unknownDuration
	if a.Duration != nil {
		duration = *a.Duration
	}
	description := a.Description
	if len(description) > 500 {
		description = description[:500]
	}
	return map[string]string{
		"name":             a.Name,
		"url":              a.URL,
		"test_type":        strings.Join(a.TestTypes, ","),
		"duration":         strconv.Itoa(duration),
		"remote_support":   strconv.FormatBool(a.RemoteSupport),
		"adaptive_support": strconv.FormatBool(a.AdaptiveSupport),
		"description":      description,
		"job_levels":       a.JobLevels,
		"languages":        a.Languages,
	}
}

// assessmentFromMetadata reverses assessmentMetadata.
func assessmentFromMetadata(meta map[string]string) catalog.Assessment {
	a := catalog.Assessment{
		Name:        meta["name"],
		URL:         meta["url"],
		Description: meta["description"],
		JobLevels:   meta["job_levels"],
		Languages:   meta["languages"],
	}
	for _, t := range strings.Split(meta["test_type"], ",") {
		if t = strings.TrimSpace(t); t != "" {
			a.TestTypes = append(a.TestTypes, t)
		}
	}
	if d, err := strconv.Atoi(meta["duration"]); err == nil && d != unknownDuration {
		a.Duration = &d
	}
	a.RemoteSupport, _ = strconv.ParseBool(meta["remote_support"])
	a.AdaptiveSupport, _ = strconv.ParseBool(meta["adaptive_support"])
	return a
}

// Ensure interfaces are implemented at compile time.
var _ Searcher = (*Store)(nil)
var _ Indexer = (*Store)(nil)
