package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/general"
	"github.com/talentsift/recommendd/internal/intent"
	"github.com/talentsift/recommendd/internal/workflow"
)

type fakePipeline struct {
	state *workflow.State
}

func (f *fakePipeline) Run(ctx context.Context, query, sessionID string) *workflow.State {
	s := f.state
	if s == nil {
		s = workflow.NewState(query, sessionID)
	}
	s.Query = query
	s.SessionID = sessionID
	return s
}

type fakeSearcher struct {
	results []catalog.Candidate
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]catalog.Candidate, error) {
	return f.results, f.err
}

type fakeRefresher struct {
	count int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (int, error) {
	return f.count, f.err
}

func recommendation(name, url string) catalog.Candidate {
	duration := 25
	return catalog.Candidate{
		Assessment: catalog.Assessment{
			Name:          name,
			URL:           url,
			TestTypes:     []string{"K"},
			Duration:      &duration,
			RemoteSupport: true,
			Description:   "d",
		},
		SimilarityScore: 0.9,
	}
}

func setupTestServer(t *testing.T, pipeline Pipeline, searcher *fakeSearcher, refresher Refresher, cfg *Config) *Server {
	t.Helper()
	if pipeline == nil {
		pipeline = &fakePipeline{}
	}
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	server, err := NewServer(pipeline, searcher, refresher, nil, zap.NewNop(), cfg)
	require.NoError(t, err)
	return server
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, &fakeSearcher{}, nil, nil, zap.NewNop(), nil)
	assert.ErrorContains(t, err, "pipeline cannot be nil")

	_, err = NewServer(&fakePipeline{}, nil, nil, nil, zap.NewNop(), nil)
	assert.ErrorContains(t, err, "searcher cannot be nil")

	_, err = NewServer(&fakePipeline{}, &fakeSearcher{}, nil, nil, nil, nil)
	assert.ErrorContains(t, err, "logger is required")
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleRecommend(t *testing.T) {
	state := workflow.NewState("", "")
	state.Intent = intent.JobQuery
	state.FinalRecommendations = []catalog.Candidate{
		recommendation("Python (New)", "https://x/python"),
	}
	server := setupTestServer(t, &fakePipeline{state: state}, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/recommend", RecommendRequest{Query: "python developer"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.RecommendedAssessments, 1)
	got := resp.RecommendedAssessments[0]
	assert.Equal(t, "Python (New)", got.Name)
	assert.Equal(t, "Yes", got.RemoteSupport)
	assert.Equal(t, "No", got.AdaptiveSupport)
	assert.Equal(t, []string{"Knowledge & Skills"}, got.TestType)
}

func TestHandleRecommend_MissingQuery(t *testing.T) {
	server := setupTestServer(t, nil, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/recommend", RecommendRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRecommend_PipelineError(t *testing.T) {
	state := workflow.NewState("", "")
	state.Error = &workflow.StageError{Stage: workflow.StageRecommend, Message: "boom"}
	server := setupTestServer(t, &fakePipeline{state: state}, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/recommend", RecommendRequest{Query: "q"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleRecommend_NoMatches(t *testing.T) {
	server := setupTestServer(t, &fakePipeline{}, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/recommend", RecommendRequest{Query: "q"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.RecommendedAssessments)
	assert.NotEmpty(t, resp.Message)
}

func TestHandleChat_GeneralAnswer(t *testing.T) {
	state := workflow.NewState("", "")
	state.Intent = intent.General
	state.GeneralAnswer = "assessments measure skills"
	server := setupTestServer(t, &fakePipeline{state: state}, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/chat", ChatRequest{Query: "what are assessments"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "assessments measure skills", resp.Response)
	assert.Empty(t, resp.Assessments)
}

func TestHandleChat_Recommendations(t *testing.T) {
	state := workflow.NewState("", "")
	state.Intent = intent.JobQuery
	state.FinalRecommendations = []catalog.Candidate{
		recommendation("a", "https://x/a"),
		recommendation("b", "https://x/b"),
	}
	server := setupTestServer(t, &fakePipeline{state: state}, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/chat", ChatRequest{Query: "python developer"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Response, "2 assessments")
	assert.Len(t, resp.Assessments, 2)
}

func TestHandleChat_OutOfContext(t *testing.T) {
	state := workflow.NewState("", "")
	state.Intent = intent.OutOfContext
	state.GeneralAnswer = general.OutOfContextResponse
	server := setupTestServer(t, &fakePipeline{state: state}, nil, nil, nil)

	rec := postJSON(t, server, "/api/v1/chat", ChatRequest{Query: "weather tomorrow?"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, general.OutOfContextResponse, resp.Response)
}

func TestHandleSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []catalog.Candidate{recommendation("a", "https://x/a")}}
	server := setupTestServer(t, nil, searcher, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/search?q=python&k=5", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 0.9, resp.Results[0].SimilarityScore, 1e-9)
}

func TestHandleSearch_Validation(t *testing.T) {
	server := setupTestServer(t, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/search", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/assessments/search?q=x&k=999", nil)
	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTestTypes(t *testing.T) {
	server := setupTestServer(t, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test-types", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TestTypesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.TestTypes, 8)
}

func TestHandleRefresh(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 8000, RefreshAPIKey: "sekrit"}

	t.Run("requires api key", func(t *testing.T) {
		server := setupTestServer(t, nil, nil, &fakeRefresher{count: 3}, cfg)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refreshes with valid key", func(t *testing.T) {
		server := setupTestServer(t, nil, nil, &fakeRefresher{count: 3}, cfg)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		req.Header.Set("X-API-Key", "sekrit")
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RefreshResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.AssessmentsCount)
	})

	t.Run("disabled without configured key", func(t *testing.T) {
		server := setupTestServer(t, nil, nil, &fakeRefresher{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("refresh failure", func(t *testing.T) {
		server := setupTestServer(t, nil, nil, &fakeRefresher{err: errors.New("load failed")}, cfg)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		req.Header.Set("X-API-Key", "sekrit")
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
