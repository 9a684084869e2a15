// Package httpapi provides the HTTP API for recommendd.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/session"
	"github.com/talentsift/recommendd/internal/vectorstore"
	"github.com/talentsift/recommendd/internal/workflow"
)

// Pipeline runs one query through the recommendation workflow.
type Pipeline interface {
	Run(ctx context.Context, query, sessionID string) *workflow.State
}

// Refresher reloads the catalog snapshot and rebuilds the vector index.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RefreshAPIKey guards POST /api/v1/refresh. Empty disables the
	// endpoint entirely.
	RefreshAPIKey string
}

// Server provides the HTTP endpoints.
type Server struct {
	echo      *echo.Echo
	pipeline  Pipeline
	searcher  vectorstore.Searcher
	refresher Refresher
	sessions  *session.Store
	logger    *zap.Logger
	config    *Config
}

// NewServer creates the HTTP server. The session store and refresher
// may be nil; the corresponding endpoints then return 404 or 503.
func NewServer(pipeline Pipeline, searcher vectorstore.Searcher, refresher Refresher, sessions *session.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8000}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		pipeline:  pipeline,
		searcher:  searcher,
		refresher: refresher,
		sessions:  sessions,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/recommend", s.handleRecommend)
	v1.POST("/chat", s.handleChat)
	v1.GET("/assessments/search", s.handleSearch)
	v1.GET("/test-types", s.handleTestTypes)
	v1.GET("/sessions/:id", s.handleGetSession)
	v1.POST("/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// runPipeline executes the workflow and records the interaction if a
// session store is configured. Recording failures are logged, never
// surfaced to the caller.
func (s *Server) runPipeline(c echo.Context, query, sessionID string) (*workflow.State, string) {
	ctx := c.Request().Context()

	if s.sessions != nil {
		id, err := s.sessions.EnsureSession(ctx, sessionID)
		if err != nil {
			s.logger.Warn("session bookkeeping failed", zap.Error(err))
		} else {
			sessionID = id
		}
	}

	start := time.Now()
	state := s.pipeline.Run(ctx, query, sessionID)
	elapsed := time.Since(start)

	if s.sessions != nil {
		var recommendations json.RawMessage
		if len(state.FinalRecommendations) > 0 {
			if raw, err := json.Marshal(toAssessmentResponses(state.FinalRecommendations)); err == nil {
				recommendations = raw
			}
		}
		interaction := session.Interaction{
			SessionID:       sessionID,
			Query:           query,
			Intent:          string(state.Intent),
			GeneralAnswer:   state.GeneralAnswer,
			Recommendations: recommendations,
			AssessmentCount: len(state.FinalRecommendations),
			ProcessingMS:    elapsed.Milliseconds(),
			Success:         state.Error == nil,
		}
		if state.Error != nil {
			interaction.ErrorMessage = fmt.Sprintf("%s: %s", state.Error.Stage, state.Error.Message)
		}
		if _, err := s.sessions.RecordInteraction(ctx, interaction); err != nil {
			s.logger.Warn("failed to record interaction", zap.Error(err))
		}
	}

	return state, sessionID
}

func (s *Server) handleRecommend(c echo.Context) error {
	var req RecommendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	state, sessionID := s.runPipeline(c, req.Query, req.SessionID)

	if state.Error != nil {
		s.logger.Error("pipeline error",
			zap.String("stage", string(state.Error.Stage)),
			zap.String("message", state.Error.Message),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "recommendation failed")
	}

	resp := RecommendResponse{
		RecommendedAssessments: toAssessmentResponses(state.FinalRecommendations),
		SessionID:              sessionID,
	}
	if len(state.FinalRecommendations) == 0 {
		if state.GeneralAnswer != "" {
			resp.Message = state.GeneralAnswer
		} else {
			resp.Message = "No matching assessments found for this query."
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	state, sessionID := s.runPipeline(c, req.Query, req.SessionID)

	resp := ChatResponse{SessionID: sessionID}
	switch {
	case state.GeneralAnswer != "":
		resp.Response = state.GeneralAnswer
	case len(state.FinalRecommendations) > 0:
		resp.Response = fmt.Sprintf("I found %d assessments matching your requirements.", len(state.FinalRecommendations))
		resp.Assessments = toAssessmentResponses(state.FinalRecommendations)
	case state.Error != nil:
		resp.Response = "I'm sorry, I couldn't process that request. Please try again."
	default:
		resp.Response = "I couldn't find any assessments matching your requirements. Try broadening the query."
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q parameter is required")
	}
	k := 10
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be an integer between 1 and 50")
		}
		k = parsed
	}

	candidates, err := s.searcher.Search(c.Request().Context(), query, k)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	results := make([]SearchResultItem, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, SearchResultItem{
			AssessmentResponse: toAssessmentResponse(cand.Assessment),
			SimilarityScore:    cand.SimilarityScore,
		})
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}

func (s *Server) handleTestTypes(c echo.Context) error {
	types := catalogTestTypes()
	return c.JSON(http.StatusOK, TestTypesResponse{TestTypes: types})
}

func (s *Server) handleGetSession(c echo.Context) error {
	if s.sessions == nil {
		return echo.NewHTTPError(http.StatusNotFound, "sessions are not enabled")
	}
	id := c.Param("id")

	sess, err := s.sessions.GetSession(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	interactions, err := s.sessions.ListInteractions(c.Request().Context(), id, 50)
	if err != nil {
		s.logger.Error("failed to list interactions", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session")
	}

	resp := SessionResponse{
		SessionID:        sess.ID,
		CreatedAt:        sess.CreatedAt.Format(time.RFC3339),
		InteractionCount: len(interactions),
		Interactions:     make([]Interaction, 0, len(interactions)),
	}
	for _, in := range interactions {
		resp.Interactions = append(resp.Interactions, Interaction{
			Query:           in.Query,
			Intent:          in.Intent,
			AssessmentCount: in.AssessmentCount,
			Success:         in.Success,
			CreatedAt:       in.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRefresh(c echo.Context) error {
	if s.refresher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "refresh is not enabled")
	}
	if s.config.RefreshAPIKey == "" {
		return echo.NewHTTPError(http.StatusNotFound, "refresh is not enabled")
	}
	key := c.Request().Header.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.config.RefreshAPIKey)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid API key")
	}

	count, err := s.refresher.Refresh(c.Request().Context())
	if err != nil {
		s.logger.Error("catalog refresh failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	return c.JSON(http.StatusOK, RefreshResponse{
		Status:           "ok",
		Message:          "catalog reindexed",
		AssessmentsCount: count,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
