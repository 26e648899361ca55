package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairwaylabs/swingsense-backend/internal/feedback"
	"github.com/fairwaylabs/swingsense-backend/internal/http/response"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/rubric"
	"github.com/fairwaylabs/swingsense-backend/internal/services"
)

type AdminHandler struct {
	log       *logger.Logger
	metrics   *services.MetricService
	scheduler *feedback.Scheduler
	rubrics   *rubric.Pipeline
}

func NewAdminHandler(log *logger.Logger, metrics *services.MetricService, scheduler *feedback.Scheduler, rubrics *rubric.Pipeline) *AdminHandler {
	return &AdminHandler{
		log:       log.With("Handler", "AdminHandler"),
		metrics:   metrics,
		scheduler: scheduler,
		rubrics:   rubrics,
	}
}

func (h *AdminHandler) InitializeMetrics(c *gin.Context) {
	count, err := h.metrics.Initialize(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"initialized": count})
}

func (h *AdminHandler) ProcessFeedback(c *gin.Context) {
	result, err := h.scheduler.MaybeRun(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type extractRequest struct {
	ExampleURL string `json:"exampleUrl"`
}

func (h *AdminHandler) ExtractRubric(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.ExampleURL == "" {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("exampleUrl required"))
		return
	}
	row, err := h.rubrics.Extract(c.Request.Context(), c.Param("metric"), req.ExampleURL)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, row)
}

func (h *AdminHandler) ExtractAllRubrics(c *gin.Context) {
	results := h.rubrics.ExtractAll(c.Request.Context())
	response.RespondOK(c, gin.H{"results": results})
}
