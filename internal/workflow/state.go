package workflow

import (
	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/extraction"
	"github.com/talentsift/recommendd/internal/intent"
)

// Stage names a pipeline stage. Stage names appear in traces, error
// records, and metrics labels.
type Stage string

const (
	StageClassifyIntent Stage = "classify_intent"
	StageCheckURL       Stage = "check_url"
	StageFetchSource    Stage = "fetch_source"
	StageEnhanceQuery   Stage = "enhance_query"
	StageRecommend      Stage = "recommend"
	StageGeneralAnswer  Stage = "general_answer"
	StageOutOfContext   Stage = "out_of_context"
	StageFinalize       Stage = "finalize"
)

// StageError records which stage failed and why.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// State is the per-query record threaded through every stage. It is
// exclusively owned by one pipeline run and never shared.
type State struct {
	// Inputs, immutable once set.
	Query     string `json:"query"`
	SessionID string `json:"session_id"`

	Intent           intent.Intent `json:"intent"`
	IntentConfidence float64       `json:"intent_confidence"`

	HasURL        bool     `json:"has_url"`
	ExtractedURLs []string `json:"extracted_urls,omitempty"`

	SourceText         string `json:"source_text,omitempty"`
	SourceExtractionOK bool   `json:"source_extraction_ok"`

	EnhancedQuery *extraction.EnhancedQuery `json:"enhanced_query,omitempty"`

	RetrievedCandidates  []catalog.Candidate `json:"retrieved_candidates,omitempty"`
	FinalRecommendations []catalog.Candidate `json:"final_recommendations,omitempty"`

	GeneralAnswer string `json:"general_answer,omitempty"`

	Error *StageError `json:"error,omitempty"`

	// Notes collects recovered, non-fatal degradations (classifier
	// fallback, fetch failure, enhancement fallback). They are
	// diagnostics, not errors.
	Notes []string `json:"notes,omitempty"`

	// Trace lists the stages executed, in order.
	Trace []Stage `json:"trace"`
}

// NewState creates the state for one query run.
func NewState(query, sessionID string) *State {
	return &State{
		Query:     query,
		SessionID: sessionID,
		Intent:    intent.IntentUnset,
	}
}

// enter appends a stage to the trace.
func (s *State) enter(stage Stage) {
	s.Trace = append(s.Trace, stage)
}

// fail records a stage error. The first error wins; later stages do not
// overwrite it.
func (s *State) fail(stage Stage, message string) {
	if s.Error == nil {
		s.Error = &StageError{Stage: stage, Message: message}
	}
}

// note records a recovered degradation.
func (s *State) note(message string) {
	s.Notes = append(s.Notes, message)
}
