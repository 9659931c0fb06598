package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/llmagent"
)

// Runner runs one afford agent loop.
type Runner interface {
	Run(ctx context.Context, request llmagent.AgentRequest[afford.State]) (*llmagent.AgentResponse[afford.State], error)
}

type RunHandler struct {
	runner Runner
	logger *slog.Logger
}

func NewRunHandler(runner Runner, logger *slog.Logger) *RunHandler {
	return &RunHandler{runner: runner, logger: logger}
}

type CreateRunRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
}

type RunResponse struct {
	RunID                   string                  `json:"run_id"`
	Text                    string                  `json:"text"`
	Turns                   int                     `json:"turns"`
	OriginalItemDescription *afford.ItemDescription `json:"original_item_description"`
	Candidates              []afford.Candidate      `json:"candidates"`
}

// CreateRun runs the agent for one image and returns the final answer with
// the run state.
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ImageURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_url is required"})
		return
	}

	resp, err := h.runner.Run(c.Request.Context(), afford.NewRunRequest(strings.TrimSpace(req.ImageURL)))
	if err != nil {
		var agentErr *llmagent.AgentError
		if errors.As(err, &agentErr) {
			h.logger.Warn("run failed", "kind", agentErr.Kind, "turn", agentErr.Turn, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error": err.Error(),
				"kind":  agentErr.Kind,
				"turn":  agentErr.Turn,
			})
			return
		}
		h.logger.Error("run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	candidates := resp.State.Candidates
	if candidates == nil {
		candidates = []afford.Candidate{}
	}
	c.JSON(http.StatusOK, RunResponse{
		RunID:                   resp.RunID,
		Text:                    resp.Text(),
		Turns:                   resp.Turns,
		OriginalItemDescription: resp.State.OriginalItemDescription,
		Candidates:              candidates,
	})
}
