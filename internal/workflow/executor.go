package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/engine"
	"github.com/talentsift/recommendd/internal/extraction"
	"github.com/talentsift/recommendd/internal/fetcher"
	"github.com/talentsift/recommendd/internal/general"
	"github.com/talentsift/recommendd/internal/intent"
)

var tracer = otel.Tracer("recommendd.workflow")

// panicAnswer is the response for runs terminated by an unexpected
// failure. The caller never sees a raw panic.
const panicAnswer = "I apologize, but something went wrong while processing your request. Please try again, or rephrase your question."

// IntentClassifier classifies a query into a routing intent.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) intent.Classification
}

// URLDetector is the model-based URL detection fallback.
type URLDetector interface {
	Detect(ctx context.Context, text string) (extraction.URLExtraction, error)
}

// SourceFetcher fetches job description text from a URL.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) fetcher.Result
}

// QueryEnhancer builds the enhanced query from free text. The returned
// note is non-empty when the degraded rule-only path was taken.
type QueryEnhancer interface {
	Enhance(ctx context.Context, text string) (extraction.EnhancedQuery, string)
}

// Recommender runs the retrieve-rerank-balance engine.
type Recommender interface {
	Recommend(ctx context.Context, query extraction.EnhancedQuery) ([]catalog.Candidate, error)
}

// GeneralAnswerer answers general questions. It never fails; errors
// degrade to a fixed apology internally.
type GeneralAnswerer interface {
	Answer(ctx context.Context, query string) string
}

// Executor composes the pipeline stages and runs one query at a time
// through them. It is safe for concurrent use: all mutable state lives
// in the per-run State.
type Executor struct {
	classifier IntentClassifier
	detector   URLDetector
	fetcher    SourceFetcher
	enhancer   QueryEnhancer
	engine     Recommender
	answerer   GeneralAnswerer
	logger     *zap.Logger
}

// NewExecutor creates an Executor. The detector may be nil, in which
// case URL detection relies on the deterministic extractor alone.
func NewExecutor(
	classifier IntentClassifier,
	detector URLDetector,
	sourceFetcher SourceFetcher,
	enhancer QueryEnhancer,
	recommender Recommender,
	answerer GeneralAnswerer,
	logger *zap.Logger,
) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		classifier: classifier,
		detector:   detector,
		fetcher:    sourceFetcher,
		enhancer:   enhancer,
		engine:     recommender,
		answerer:   answerer,
		logger:     logger,
	}
}

// Run executes the full pipeline for one query. It always returns a
// usable State: panics anywhere in the pipeline are recovered here and
// converted into an apologetic general answer plus an error record.
func (e *Executor) Run(ctx context.Context, query, sessionID string) (state *State) {
	ctx, span := tracer.Start(ctx, "workflow.Run")
	defer span.End()

	start := time.Now()
	state = NewState(query, sessionID)

	defer func() {
		if r := recover(); r != nil {
			PipelinePanics.Inc()
			e.logger.Error("pipeline panic recovered",
				zap.Any("panic", r),
				zap.String("session_id", sessionID),
			)
			state.fail("pipeline", fmt.Sprintf("unexpected failure: %v", r))
			state.GeneralAnswer = panicAnswer
			state.FinalRecommendations = nil
		}
		e.finalize(state)
		span.SetAttributes(
			attribute.String("workflow.intent", string(state.Intent)),
			attribute.Int("workflow.recommendations", len(state.FinalRecommendations)),
		)
		PipelineDuration.WithLabelValues(string(state.Intent)).Observe(time.Since(start).Seconds())
	}()

	e.classifyIntent(ctx, state)

	switch RouteIntent(state.Intent) {
	case StageGeneralAnswer:
		e.generalAnswer(ctx, state)
		return state
	case StageOutOfContext:
		e.outOfContext(state)
		return state
	}

	// Recommendation path. Each stage boundary is a cancellation
	// checkpoint.
	if cancelled(ctx, state) {
		return state
	}
	e.checkURL(ctx, state)

	if cancelled(ctx, state) {
		return state
	}
	if NeedsFetch(state) {
		e.fetchSource(ctx, state)
	}

	if cancelled(ctx, state) {
		return state
	}
	e.enhanceQuery(ctx, state)

	if cancelled(ctx, state) {
		return state
	}
	e.recommend(ctx, state)

	return state
}

func (e *Executor) classifyIntent(ctx context.Context, state *State) {
	state.enter(StageClassifyIntent)

	cls := e.classifier.Classify(ctx, state.Query)
	state.Intent = cls.Intent
	state.IntentConfidence = cls.Confidence
	if cls.Fallback {
		FallbacksTotal.WithLabelValues("classification").Inc()
		state.note(cls.Note)
	}
	StagesTotal.WithLabelValues(string(StageClassifyIntent), "ok").Inc()

	e.logger.Info("intent classified",
		zap.String("session_id", state.SessionID),
		zap.String("intent", string(cls.Intent)),
		zap.Float64("confidence", cls.Confidence),
		zap.Bool("fallback", cls.Fallback),
	)
}

// checkURL tries the deterministic URL extractor first and only falls
// back to the model detector when nothing is found.
func (e *Executor) checkURL(ctx context.Context, state *State) {
	state.enter(StageCheckURL)

	urls := extraction.ExtractURLs(state.Query)
	if len(urls) == 0 && e.detector != nil {
		detected, err := e.detector.Detect(ctx, state.Query)
		if err != nil {
			// Detection failure means no URL; the pipeline proceeds
			// on the raw query.
			FallbacksTotal.WithLabelValues("url_detection").Inc()
			state.note(fmt.Sprintf("url detection failed: %v", err))
		} else if detected.HasURL {
			urls = detected.URLs
			if primary := detected.Primary(); primary != "" && primary != urls[0] {
				urls = append([]string{primary}, urls...)
			}
		}
	}

	state.HasURL = len(urls) > 0
	state.ExtractedURLs = urls
	StagesTotal.WithLabelValues(string(StageCheckURL), "ok").Inc()
}

// fetchSource fetches the primary URL only. Failure is recorded and the
// pipeline continues on the original query text.
func (e *Executor) fetchSource(ctx context.Context, state *State) {
	state.enter(StageFetchSource)

	result := e.fetcher.Fetch(ctx, state.ExtractedURLs[0])
	if result.Success {
		state.SourceText = result.Text
		state.SourceExtractionOK = true
		StagesTotal.WithLabelValues(string(StageFetchSource), "ok").Inc()
		return
	}

	state.SourceExtractionOK = false
	state.note(fmt.Sprintf("source fetch failed: %s", result.ErrorMessage))
	FallbacksTotal.WithLabelValues("fetch").Inc()
	StagesTotal.WithLabelValues(string(StageFetchSource), "error").Inc()
	e.logger.Warn("source fetch failed, continuing with raw query",
		zap.String("session_id", state.SessionID),
		zap.String("url", state.ExtractedURLs[0]),
		zap.String("error", result.ErrorMessage),
	)
}

func (e *Executor) enhanceQuery(ctx context.Context, state *State) {
	state.enter(StageEnhanceQuery)

	enhanced, note := e.enhancer.Enhance(ctx, EnhancementInput(state))
	state.EnhancedQuery = &enhanced
	if note != "" {
		FallbacksTotal.WithLabelValues("enhancement").Inc()
		state.note(note)
	}
	StagesTotal.WithLabelValues(string(StageEnhanceQuery), "ok").Inc()
}

func (e *Executor) recommend(ctx context.Context, state *State) {
	state.enter(StageRecommend)

	recommendations, err := e.engine.Recommend(ctx, *state.EnhancedQuery)
	if err != nil {
		if errors.Is(err, engine.ErrNoMatches) {
			// A legitimate terminal outcome: empty recommendations,
			// no pipeline error.
			state.note("no matching assessments found")
			StagesTotal.WithLabelValues(string(StageRecommend), "ok").Inc()
			return
		}
		state.fail(StageRecommend, err.Error())
		StagesTotal.WithLabelValues(string(StageRecommend), "error").Inc()
		e.logger.Error("recommendation failed",
			zap.String("session_id", state.SessionID),
			zap.Error(err),
		)
		return
	}

	state.RetrievedCandidates = recommendations
	state.FinalRecommendations = recommendations
	StagesTotal.WithLabelValues(string(StageRecommend), "ok").Inc()
}

func (e *Executor) generalAnswer(ctx context.Context, state *State) {
	state.enter(StageGeneralAnswer)
	state.GeneralAnswer = e.answerer.Answer(ctx, state.Query)
	StagesTotal.WithLabelValues(string(StageGeneralAnswer), "ok").Inc()
}

func (e *Executor) outOfContext(state *State) {
	state.enter(StageOutOfContext)
	state.GeneralAnswer = general.OutOfContextResponse
	StagesTotal.WithLabelValues(string(StageOutOfContext), "ok").Inc()
}

// finalize deduplicates recommendations by URL, preserving first-seen
// order. It runs unconditionally on every path and is idempotent.
func (e *Executor) finalize(state *State) {
	state.enter(StageFinalize)
	state.FinalRecommendations = DedupByURL(state.FinalRecommendations)
	StagesTotal.WithLabelValues(string(StageFinalize), "ok").Inc()
}

// DedupByURL removes duplicate catalog items by URL. The first
// occurrence wins; earlier means higher ranked.
func DedupByURL(candidates []catalog.Candidate) []catalog.Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

// cancelled checks the context at a stage boundary and records the
// cancellation as a pipeline error.
func cancelled(ctx context.Context, state *State) bool {
	if err := ctx.Err(); err != nil {
		state.fail("pipeline", fmt.Sprintf("cancelled: %v", err))
		return true
	}
	return false
}
