// Package server exposes the pipeline over HTTP. It is a thin layer:
// request parsing, outcome-to-status mapping, and nothing else.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/pipeline"
	"github.com/zen-systems/proofgate/pkg/schema"
)

// Starter starts pipeline runs. Implemented by pipeline.Orchestrator.
type Starter interface {
	StartRun(ctx context.Context, problem *schema.ProblemInput) *pipeline.RunOutcome
}

// Resumer applies review decisions. Implemented by pipeline.Orchestrator.
type Resumer interface {
	Resume(ctx context.Context, recordID string, action pipeline.Action, payload *pipeline.ResumePayload) *pipeline.ResumeOutcome
}

// Server wires the pipeline and ledger to an HTTP mux.
type Server struct {
	starter Starter
	resumer Resumer
	store   ledger.Store
	logger  *slog.Logger
	engine  *gin.Engine
}

// New builds a server over the given pipeline operations and ledger store.
func New(starter Starter, resumer Resumer, store ledger.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		starter: starter,
		resumer: resumer,
		store:   store,
		logger:  logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)
	engine.POST("/solve", s.handleSolve)
	engine.GET("/review", s.handleListReviews)
	engine.POST("/review/:id", s.handleResume)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler for serving or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// solveRequest mirrors schema.ProblemInput at the HTTP boundary.
type solveRequest struct {
	ProblemText      string   `json:"problem_text" binding:"required"`
	Topic            string   `json:"topic"`
	Variables        []string `json:"variables"`
	Constraints      []string `json:"constraints"`
	RetrievedContext []string `json:"retrieved_context"`
}

func (s *Server) handleSolve(c *gin.Context) {
	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	problem := &schema.ProblemInput{
		ProblemText:      req.ProblemText,
		Topic:            req.Topic,
		Variables:        req.Variables,
		Constraints:      req.Constraints,
		RetrievedContext: req.RetrievedContext,
	}

	outcome := s.starter.StartRun(c.Request.Context(), problem)
	s.logger.Info("run finished", "outcome", outcome.Outcome, "record_id", outcome.RecordID)
	c.JSON(runStatus(outcome), outcome)
}

// runStatus maps a run outcome to an HTTP status. SUSPENDED is 202: the
// request was accepted but needs a human before an answer exists.
func runStatus(outcome *pipeline.RunOutcome) int {
	switch outcome.Outcome {
	case pipeline.OutcomeDone, pipeline.OutcomeOutOfScope:
		return http.StatusOK
	case pipeline.OutcomeSuspended:
		return http.StatusAccepted
	case pipeline.OutcomeFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type resumeRequest struct {
	Action     string            `json:"action" binding:"required"`
	EditedText string            `json:"edited_text"`
	Corrected  *schema.Candidate `json:"corrected"`
}

func (s *Server) handleResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload := &pipeline.ResumePayload{
		EditedText: req.EditedText,
		Corrected:  req.Corrected,
	}
	outcome := s.resumer.Resume(c.Request.Context(), c.Param("id"), pipeline.Action(req.Action), payload)
	s.logger.Info("review resolved", "record_id", c.Param("id"), "action", req.Action, "outcome", outcome.Outcome)

	status := http.StatusOK
	if outcome.Outcome == pipeline.OutcomeError {
		status = http.StatusConflict
	}
	c.JSON(status, outcome)
}

func (s *Server) handleListReviews(c *gin.Context) {
	pending := s.store.Pending()
	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}
