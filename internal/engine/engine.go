package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/extraction"
	"github.com/talentsift/recommendd/internal/vectorstore"
)

var tracer = otel.Tracer("recommendd.engine")

// ErrNoMatches is returned when semantic retrieval yields zero
// candidates. It is a legitimate terminal outcome, not a pipeline bug,
// and callers surface it to the user as such.
var ErrNoMatches = errors.New("no matching assessments found")

// Config tunes the engine's retrieval and selection behavior.
type Config struct {
	// TopKRetrieve is the retrieval ceiling for Step A.
	TopKRetrieve int `koanf:"top_k_retrieve"`
	// MinSelect is the floor on the final recommendation count.
	MinSelect int `koanf:"min_select"`
	// MaxSelect is the ceiling on the final recommendation count.
	MaxSelect int `koanf:"max_select"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.TopKRetrieve == 0 {
		c.TopKRetrieve = 12
	}
	if c.MinSelect == 0 {
		c.MinSelect = 5
	}
	if c.MaxSelect == 0 {
		c.MaxSelect = 7
	}
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.MinSelect < 1 {
		return fmt.Errorf("min_select must be at least 1, got %d", c.MinSelect)
	}
	if c.MaxSelect < c.MinSelect {
		return fmt.Errorf("max_select (%d) must be >= min_select (%d)", c.MaxSelect, c.MinSelect)
	}
	if c.TopKRetrieve < c.MaxSelect {
		return fmt.Errorf("top_k_retrieve (%d) must be >= max_select (%d)", c.TopKRetrieve, c.MaxSelect)
	}
	return nil
}

// Engine runs the retrieve-rerank-balance pipeline.
type Engine struct {
	searcher vectorstore.Searcher
	reranker *Reranker
	config   Config
	logger   *zap.Logger
}

// New creates an Engine. The reranker may be nil, in which case the
// similarity-order fallback is used unconditionally.
func New(searcher vectorstore.Searcher, reranker *Reranker, config Config, logger *zap.Logger) *Engine {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		searcher: searcher,
		reranker: reranker,
		config:   config,
		logger:   logger,
	}
}

// Recommend produces the final recommendation list for an enhanced query.
func (e *Engine) Recommend(ctx context.Context, query extraction.EnhancedQuery) ([]catalog.Candidate, error) {
	ctx, span := tracer.Start(ctx, "engine.Recommend")
	defer span.End()

	searchText := BuildSearchQuery(query)
	span.SetAttributes(attribute.Int("engine.top_k", e.config.TopKRetrieve))

	candidates, err := e.searcher.Search(ctx, searchText, e.config.TopKRetrieve)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	if len(candidates) == 0 {
		span.SetStatus(codes.Error, "no matches")
		return nil, ErrNoMatches
	}
	span.SetAttributes(attribute.Int("engine.retrieved", len(candidates)))

	filtered := FilterByDuration(candidates, query.DurationCapMinutes)
	e.logger.Debug("candidates filtered",
		zap.Int("retrieved", len(candidates)),
		zap.Int("after_duration_filter", len(filtered)),
	)

	ranked := filtered
	if len(filtered) > e.config.MaxSelect {
		if e.reranker != nil {
			ranked = e.reranker.Rerank(ctx, query, filtered, e.config.MaxSelect)
		} else {
			ranked = SortBySimilarity(filtered, e.config.MaxSelect)
		}
	}

	balanced := ranked
	if len(query.RequiredCategories) > 1 {
		balanced = BalanceByCategory(ranked, query.RequiredCategories, e.config.MaxSelect)
	}

	count := e.finalCount(query)
	if count > len(balanced) {
		count = len(balanced)
	}
	final := balanced[:count]

	span.SetAttributes(attribute.Int("engine.recommended", len(final)))
	e.logger.Info("recommendations selected",
		zap.Int("retrieved", len(candidates)),
		zap.Int("final", len(final)),
	)
	return final, nil
}

// FilterByDuration drops candidates whose known duration exceeds the
// cap. Candidates with unknown duration are always kept.
func FilterByDuration(candidates []catalog.Candidate, capMinutes *int) []catalog.Candidate {
	if capMinutes == nil {
		return candidates
	}
	kept := make([]catalog.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Duration != nil && *c.Duration > *capMinutes {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// finalCount applies the selection-size policy: tight duration caps get
// fewer, broader recommendations get more, multi-category queries always
// get the full allowance.
func (e *Engine) finalCount(query extraction.EnhancedQuery) int {
	cap := query.DurationCapMinutes
	switch {
	case cap != nil && *cap <= 30:
		return e.config.MinSelect
	case cap != nil && *cap <= 60:
		return min(7, e.config.MaxSelect)
	case len(query.RequiredCategories) > 1:
		return e.config.MaxSelect
	default:
		return min(8, e.config.MaxSelect)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
