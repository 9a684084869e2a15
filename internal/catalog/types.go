// Package catalog defines the assessment catalog data model.
//
// An Assessment is immutable reference data identified by its catalog URL.
// All matching, deduplication and grouping operations in the recommendation
// pipeline key on that URL.
package catalog

import (
	"fmt"
	"strings"
)

// Assessment is a single catalog entry.
type Assessment struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	TestTypes       []string `json:"test_type"`
	Duration        *int     `json:"duration,omitempty"` // minutes, nil when unknown
	RemoteSupport   bool     `json:"remote_support"`
	AdaptiveSupport bool     `json:"adaptive_support"`
	Description     string   `json:"description"`
	JobLevels       string   `json:"job_levels,omitempty"`
	Languages       string   `json:"languages,omitempty"`
}

// Candidate annotates an assessment with retrieval and reranking scores.
// Candidates live only for the duration of a single pipeline run.
type Candidate struct {
	Assessment

	// SimilarityScore is the vector similarity from retrieval (1 - distance).
	SimilarityScore float64 `json:"similarity_score"`

	// RelevanceScore is set by the LLM reranker, nil when the reranker
	// was skipped or fell back to similarity ordering.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`

	// RelevanceReason is the reranker's one-line justification.
	RelevanceReason string `json:"relevance_reason,omitempty"`
}

// RankScore returns the preferred sort key: relevance score when the
// reranker produced one, similarity score otherwise.
func (c Candidate) RankScore() float64 {
	if c.RelevanceScore != nil {
		return *c.RelevanceScore
	}
	return c.SimilarityScore
}

// testTypeNames maps single-letter catalog codes to full test type names.
var testTypeNames = map[string]string{
	"A": "Ability & Aptitude",
	"B": "Biodata & Situational Judgement",
	"C": "Competencies",
	"D": "Development & 360",
	"E": "Assessment Exercises",
	"K": "Knowledge & Skills",
	"P": "Personality & Behavior",
	"S": "Simulations",
}

// TestTypeName expands a single-letter test type code to its full name.
// Unknown codes are returned unchanged.
func TestTypeName(code string) string {
	if name, ok := testTypeNames[code]; ok {
		return name
	}
	return code
}

// ExpandTestTypes expands a list of test type codes to full names.
func ExpandTestTypes(codes []string) []string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, TestTypeName(code))
	}
	return names
}

// AllTestTypes returns every known test type as "name (code)" pairs,
// ordered by code.
func AllTestTypes() []TestType {
	codes := []string{"A", "B", "C", "D", "E", "K", "P", "S"}
	types := make([]TestType, 0, len(codes))
	for _, code := range codes {
		types = append(types, TestType{Code: code, Name: testTypeNames[code]})
	}
	return types
}

// TestType pairs a catalog code with its full name.
type TestType struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ToEmbeddingText renders the assessment as the document text that gets
// embedded into the vector index.
func (a Assessment) ToEmbeddingText() string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteString(". ")
	b.WriteString(a.Description)
	if len(a.TestTypes) > 0 {
		b.WriteString(" Test types: ")
		b.WriteString(strings.Join(a.TestTypes, ", "))
		b.WriteString(".")
	}
	if a.Duration != nil {
		fmt.Fprintf(&b, " Duration: %d minutes.", *a.Duration)
	}
	if a.JobLevels != "" {
		b.WriteString(" Job levels: ")
		b.WriteString(a.JobLevels)
		b.WriteString(".")
	}
	return b.String()
}

// Validate checks the fields required for indexing.
func (a Assessment) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("assessment missing name")
	}
	if a.URL == "" {
		return fmt.Errorf("assessment %q missing url", a.Name)
	}
	if a.Description == "" {
		return fmt.Errorf("assessment %q missing description", a.Name)
	}
	return nil
}
