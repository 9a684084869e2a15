package extraction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/llm"
)

// Enhancer produces the EnhancedQuery for a text by merging the rule
// extractor with the model extractor.
type Enhancer struct {
	client     llm.Client
	maxRetries int
	logger     *zap.Logger
}

// NewEnhancer creates an Enhancer.
func NewEnhancer(client llm.Client, maxRetries int, logger *zap.Logger) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{client: client, maxRetries: maxRetries, logger: logger}
}

const enhanceSystemInstruction = `You extract structured hiring requirements from job descriptions and queries.
Respond with JSON only:
{"original_text": "...", "cleaned_text": "...", "skills": ["..."], "duration_cap_minutes": null or int,
 "job_levels": ["..."], "required_categories": ["..."], "key_requirements": ["..."]}.
cleaned_text is a concise restatement of the hiring need.
required_categories are assessment categories such as "Knowledge & Skills" or "Personality & Behavior".
duration_cap_minutes is the maximum total assessment time the text asks for, or null.`

// Enhance turns free text into an EnhancedQuery.
//
// The rule extractor always runs; the model extractor enriches it. When
// the model call fails or returns unparsable output the method degrades
// to the rule-only result instead of failing - enhancement must always
// produce some usable structure. The returned note is non-empty when the
// degraded path was taken.
func (e *Enhancer) Enhance(ctx context.Context, text string) (EnhancedQuery, string) {
	rules := ExtractRules(text)

	e.logger.Debug("rule extraction",
		zap.Int("skills", len(rules.Skills)),
		zap.Strings("job_levels", rules.JobLevels),
	)

	prompt := fmt.Sprintf("Extract hiring requirements from this text:\n\n%s", text)

	model, err := llm.Structured[EnhancedQuery](ctx, e.client, e.maxRetries, enhanceSystemInstruction, prompt, func(r *EnhancedQuery) error {
		if r.CleanedText == "" {
			return fmt.Errorf("missing cleaned_text")
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("model extraction failed, using rule-only result", zap.Error(err))
		return RulesOnly(text, rules), fmt.Sprintf("enhancement fallback used: %v", err)
	}

	if model.OriginalText == "" {
		model.OriginalText = text
	}

	merged := Merge(model, rules)
	e.logger.Debug("enhanced query built",
		zap.Int("skills", len(merged.Skills)),
		zap.Strings("categories", merged.RequiredCategories),
	)
	return merged, ""
}
