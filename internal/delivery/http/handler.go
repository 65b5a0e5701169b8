package http

import (
	"context"
	"net/http"

	"github.com/dealradar/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// Runner executes one pipeline run. Satisfied by *usecase.Pipeline.
type Runner interface {
	Run(ctx context.Context) usecase.Outcome
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	runner Runner
	diag   *Diagnostics
}

// NewHandler creates a new HTTP handler
func NewHandler(runner Runner, diag *Diagnostics) *Handler {
	return &Handler{runner: runner, diag: diag}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dealradar-backend",
		"version": "1.0.0",
	})
}

// RunCheck triggers one pipeline run. The optional ?test= parameter selects
// a diagnostic mode instead of a normal run, mirroring the scheduler-facing
// contract: GET /api/v1/deals/run?test=env|storage|api|email|structure|all
func (h *Handler) RunCheck(c *gin.Context) {
	mode := c.DefaultQuery("test", "normal")

	if mode != "normal" {
		results, ok := h.diag.Run(c.Request.Context(), mode)
		status := http.StatusOK
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"mode":    mode,
			"results": results,
		})
		return
	}

	outcome := h.runner.Run(c.Request.Context())

	status := http.StatusOK
	if outcome.Failed {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"summary":    outcome.Summary,
		"feedItems":  outcome.FeedItems,
		"candidates": outcome.Candidates,
		"enriched":   outcome.Enriched,
		"matches":    outcome.Matches,
		"notified":   outcome.Notified,
		"committed":  outcome.Committed,
	})
}
