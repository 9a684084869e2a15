// Package general answers questions about assessments and the
// recommendation service itself. It is one of the two terminal side
// paths of the workflow, next to the out-of-context redirect.
package general

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/llm"
	"github.com/talentsift/recommendd/internal/vectorstore"
)

// OutOfContextResponse is the fixed redirect for queries outside the
// hiring and assessment domain.
const OutOfContextResponse = `I appreciate your question, but I'm specifically designed to help with assessment recommendations and queries related to hiring and talent evaluation.

I can help you with:
- Recommending assessments based on job descriptions
- Explaining different types of assessments
- Answering questions about specific tests
- Understanding how to use this recommendation system

Please feel free to ask me anything related to assessments or hiring needs!`

// errorFallbackAnswer is returned when answering itself fails. The user
// always gets a usable response on this path.
const errorFallbackAnswer = `I apologize, but I encountered an error processing your question. Please try rephrasing your question or ask about:
- How the recommendation system works
- Specific assessments in the catalog
- Different types of tests available
- How to use this system`

const systemInstruction = `You are a knowledgeable assistant for an assessment recommendation service.
You answer questions about hiring assessments, explain the available test types, and help users
understand how the recommendation service works. Be helpful, informative, and concise. If asked
about specific assessments, use only the provided context.`

// faqResponses short-circuits common phrasings to hand-authored answers,
// avoiding a model call. Matching is case-insensitive substring.
var faqResponses = map[string]string{
	"how does it work": `This service recommends hiring assessments based on your needs. Simply:
1. Describe the role you're hiring for or paste a job description
2. The service analyzes the requirements and skills needed
3. It recommends the most relevant assessments from the catalog
4. Each recommendation includes test type, duration, job levels, and a description

Recommendations are balanced: if you need both technical and soft skills, you'll get a mix of Knowledge & Skills and Personality & Behavior assessments.`,

	"what can i ask": `You can ask about:
- Assessment recommendations: "I need tests for a Python developer"
- Specific assessments: "Tell me about the Python assessment"
- Test types: "What are personality assessments?"
- Job descriptions: paste a full JD or provide a URL

Examples:
- "Hiring for Java developers who can collaborate with teams"
- "Need assessments for mid-level data analysts"
- "Looking for tests that take less than 30 minutes"`,

	"test types": `The catalog covers 8 test types:

1. Knowledge & Skills (K): technical tests such as Python, Java, SQL
2. Personality & Behavior (P): personality traits, work styles, soft skills
3. Ability & Aptitude (A): cognitive abilities, reasoning, problem solving
4. Competencies (C): leadership, management, behavioral competencies
5. Biodata & Situational Judgement (B): past behavior, decision making
6. Simulations (S): interactive work scenarios
7. Assessment Exercises (E): practical work exercises
8. Development & 360 (D): development and feedback tools

The service recommends the right mix automatically based on your job requirements.`,
}

// Answerer builds general answers, optionally grounding them in catalog
// search results.
type Answerer struct {
	client   llm.Client
	searcher vectorstore.Searcher
	logger   *zap.Logger
}

// NewAnswerer creates an Answerer. The searcher may be nil; answers then
// skip catalog grounding.
func NewAnswerer(client llm.Client, searcher vectorstore.Searcher, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{client: client, searcher: searcher, logger: logger}
}

// Answer produces a general answer for a query. It never returns an
// error to the caller: failures degrade to a fixed apology text.
func (a *Answerer) Answer(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return "Please provide a question."
	}

	lower := strings.ToLower(query)
	for key, response := range faqResponses {
		if strings.Contains(lower, key) {
			a.logger.Info("answered from faq", zap.String("match", key))
			return response
		}
	}

	answer, err := a.answerWithContext(ctx, query, lower)
	if err != nil {
		a.logger.Error("general answer failed", zap.Error(err))
		return errorFallbackAnswer
	}
	return answer
}

func (a *Answerer) answerWithContext(ctx context.Context, query, lower string) (string, error) {
	contextText := ""
	if a.searcher != nil && isAssessmentQuestion(lower) {
		// Catalog grounding is best effort; search failures fall back
		// to an ungrounded answer.
		candidates, err := a.searcher.Search(ctx, query, 5)
		if err != nil {
			a.logger.Warn("catalog search for answer context failed", zap.Error(err))
		} else if len(candidates) > 0 {
			contextText = formatContext(candidates)
		}
	}

	prompt := buildAnswerPrompt(query, contextText)
	answer, err := a.client.Complete(ctx, systemInstruction, prompt)
	if err != nil {
		return "", fmt.Errorf("general answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// assessmentQuestionKeywords mark questions worth grounding in a
// catalog search before answering.
var assessmentQuestionKeywords = []string{
	"test", "assessment", "what is the", "tell me about",
	"personality", "cognitive", "python", "java", "sql",
}

func isAssessmentQuestion(lower string) bool {
	for _, kw := range assessmentQuestionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func buildAnswerPrompt(query, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer the following question about assessments or the recommendation service.\n\nQuestion: %s\n", query)
	if contextText != "" {
		fmt.Fprintf(&b, "\nRelevant assessments:\n%s\n", contextText)
	}
	b.WriteString("\nProvide a clear, helpful answer. Keep it concise (2-4 paragraphs) and user-friendly.")
	return b.String()
}

func formatContext(candidates []catalog.Candidate) string {
	var b strings.Builder
	for _, c := range candidates {
		duration := "unknown duration"
		if c.Duration != nil {
			duration = fmt.Sprintf("%d minutes", *c.Duration)
		}
		fmt.Fprintf(&b, "- %s (%s, %s): %s\n",
			c.Name,
			strings.Join(catalog.ExpandTestTypes(c.TestTypes), ", "),
			duration,
			c.Description,
		)
	}
	return b.String()
}
