// Package intent classifies user queries into the three pipeline intents.
package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/llm"
)

// Intent is one of the three routing intents.
type Intent string

const (
	// JobQuery means the user wants assessment recommendations for a role.
	JobQuery Intent = "job_query"

	// General means the user is asking about assessments or the system.
	General Intent = "general"

	// OutOfContext means the query is unrelated to hiring or assessments.
	OutOfContext Intent = "out_of_context"

	// IntentUnset is the zero value before classification runs.
	IntentUnset Intent = "unset"
)

// Classification is the classifier's output. It always carries a valid
// intent; Fallback marks a recovered classifier failure.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`

	// Fallback is true when the model call failed and the keyword
	// classifier produced the result instead.
	Fallback bool `json:"-"`

	// Note records the recovered error when Fallback is true.
	Note string `json:"-"`
}

// Classifier classifies queries via the model with a deterministic
// keyword fallback.
type Classifier struct {
	client     llm.Client
	maxRetries int
	logger     *zap.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(client llm.Client, maxRetries int, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, maxRetries: maxRetries, logger: logger}
}

const systemInstruction = `You classify queries for an assessment recommendation service.
Respond with JSON only: {"intent": "job_query"|"general"|"out_of_context", "confidence": 0.0-1.0, "reasoning": "..."}.
job_query: the user describes a role, job description or hiring need.
general: the user asks about assessments, test types or how the service works.
out_of_context: anything unrelated to hiring or assessments.`

// Classify returns the intent for a query. It never fails: an empty query
// short-circuits to OutOfContext, and a model failure degrades to the
// keyword classifier with confidence 0.5 and the error recorded in Note.
func (c *Classifier) Classify(ctx context.Context, query string) Classification {
	if strings.TrimSpace(query) == "" {
		return Classification{Intent: OutOfContext, Confidence: 1.0, Reasoning: "empty query"}
	}

	prompt := fmt.Sprintf("Classify this query:\n\n%s", query)

	result, err := llm.Structured[Classification](ctx, c.client, c.maxRetries, systemInstruction, prompt, func(r *Classification) error {
		switch r.Intent {
		case JobQuery, General, OutOfContext:
		default:
			return fmt.Errorf("invalid intent %q", r.Intent)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("confidence %f out of range", r.Confidence)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("intent classification failed, using keyword fallback", zap.Error(err))
		return Classification{
			Intent:     classifyByKeywords(query),
			Confidence: 0.5,
			Fallback:   true,
			Note:       fmt.Sprintf("classification fallback used: %v", err),
		}
	}

	c.logger.Debug("intent classified",
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
	)
	return result
}

// jobKeywords is hiring and role vocabulary that signals a job query.
var jobKeywords = []string{
	"hire", "hiring", "recruit", "looking for", "need", "seeking",
	"developer", "engineer", "manager", "analyst", "job description",
	"jd", "role", "position", "candidate", "assess", "test",
}

// generalKeywords is explanatory vocabulary that signals a general question.
var generalKeywords = []string{
	"what is", "tell me", "explain", "describe", "how does",
	"assessment", "work", "use", "available",
}

// classifyByKeywords is the deterministic fallback classifier.
// Unmatched queries default to JobQuery, which is more useful to the
// caller than OutOfContext.
func classifyByKeywords(query string) Intent {
	lower := strings.ToLower(query)

	for _, kw := range jobKeywords {
		if strings.Contains(lower, kw) {
			return JobQuery
		}
	}
	for _, kw := range generalKeywords {
		if strings.Contains(lower, kw) {
			return General
		}
	}
	return JobQuery
}
