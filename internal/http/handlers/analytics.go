package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairwaylabs/swingsense-backend/internal/analytics"
	"github.com/fairwaylabs/swingsense-backend/internal/http/response"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type AnalyticsHandler struct {
	log  *logger.Logger
	view *analytics.View
}

func NewAnalyticsHandler(log *logger.Logger, view *analytics.View) *AnalyticsHandler {
	return &AnalyticsHandler{log: log.With("Handler", "AnalyticsHandler"), view: view}
}

func (h *AnalyticsHandler) Accuracy(c *gin.Context) {
	report, err := h.view.Accuracy(c.Request.Context(), c.DefaultQuery("range", "1y"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	response.RespondOK(c, report)
}
