package httpapi

import (
	"github.com/talentsift/recommendd/internal/catalog"
)

// RecommendRequest is the request body for POST /api/v1/recommend.
type RecommendRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// AssessmentResponse is one recommended assessment.
type AssessmentResponse struct {
	URL             string   `json:"url"`
	Name            string   `json:"name"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        *int     `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
	JobLevels       string   `json:"job_levels,omitempty"`
	Languages       string   `json:"languages,omitempty"`
}

// RecommendResponse is the response body for POST /api/v1/recommend.
type RecommendResponse struct {
	RecommendedAssessments []AssessmentResponse `json:"recommended_assessments"`
	SessionID              string               `json:"session_id"`
	Message                string               `json:"message,omitempty"`
}

// ChatRequest is the request body for POST /api/v1/chat.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the response body for POST /api/v1/chat.
type ChatResponse struct {
	Response    string               `json:"response"`
	SessionID   string               `json:"session_id"`
	Assessments []AssessmentResponse `json:"assessments,omitempty"`
}

// SearchResponse is the response body for GET /api/v1/assessments/search.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []SearchResultItem `json:"results"`
}

// SearchResultItem is one raw similarity search hit.
type SearchResultItem struct {
	AssessmentResponse
	SimilarityScore float64 `json:"similarity_score"`
}

// TestTypeResponse describes one test type.
type TestTypeResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TestTypesResponse is the response body for GET /api/v1/test-types.
type TestTypesResponse struct {
	TestTypes []TestTypeResponse `json:"test_types"`
}

// RefreshResponse is the response body for POST /api/v1/refresh.
type RefreshResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	AssessmentsCount int    `json:"assessments_count"`
}

// SessionResponse is the response body for GET /api/v1/sessions/:id.
type SessionResponse struct {
	SessionID        string        `json:"session_id"`
	CreatedAt        string        `json:"created_at"`
	InteractionCount int           `json:"interaction_count"`
	Interactions     []Interaction `json:"interactions"`
}

// Interaction is one stored query/response pair in a session view.
type Interaction struct {
	Query           string `json:"query"`
	Intent          string `json:"intent,omitempty"`
	AssessmentCount int    `json:"assessment_count"`
	Success         bool   `json:"success"`
	CreatedAt       string `json:"created_at"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func catalogTestTypes() []TestTypeResponse {
	all := catalog.AllTestTypes()
	out := make([]TestTypeResponse, 0, len(all))
	for _, t := range all {
		out = append(out, TestTypeResponse{Code: t.Code, Name: t.Name})
	}
	return out
}

// yesNo renders catalog booleans the way the public API spells them.
func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func toAssessmentResponse(a catalog.Assessment) AssessmentResponse {
	return AssessmentResponse{
		URL:             a.URL,
		Name:            a.Name,
		AdaptiveSupport: yesNo(a.AdaptiveSupport),
		Description:     a.Description,
		Duration:        a.Duration,
		RemoteSupport:   yesNo(a.RemoteSupport),
		TestType:        catalog.ExpandTestTypes(a.TestTypes),
		JobLevels:       a.JobLevels,
		Languages:       a.Languages,
	}
}

func toAssessmentResponses(candidates []catalog.Candidate) []AssessmentResponse {
	out := make([]AssessmentResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, toAssessmentResponse(c.Assessment))
	}
	return out
}
